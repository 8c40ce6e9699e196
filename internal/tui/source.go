package tui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/client"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

// Source is where the screen gets its game from and where key presses go.
// Play and Restart never block; refused moves are dropped.
type Source interface {
	Game() (*entity.Game, bool)
	Play(ctx context.Context, index entity.CellIndex)
	Restart(ctx context.Context)
	Status() string
	Changed() <-chan struct{}
}

// LocalSource - both players share one keyboard and the game lives in process.
type LocalSource struct {
	mu      sync.Mutex
	game    *entity.Game
	changed chan struct{}
}

func NewLocalSource() *LocalSource {
	return &LocalSource{
		game:    entity.NewGame(),
		changed: make(chan struct{}, 1),
	}
}

func (that *LocalSource) Game() (*entity.Game, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	copied := *that.game

	return &copied, true
}

func (that *LocalSource) Play(_ context.Context, index entity.CellIndex) {
	that.mu.Lock()
	err := that.game.ApplyMove(index)
	that.mu.Unlock()

	if err == nil {
		that.signal()
	}
}

func (that *LocalSource) Restart(_ context.Context) {
	that.mu.Lock()
	that.game.Reset()
	that.mu.Unlock()

	that.signal()
}

func (that *LocalSource) Status() string {
	return ""
}

func (that *LocalSource) Changed() <-chan struct{} {
	return that.changed
}

func (that *LocalSource) signal() {
	select {
	case that.changed <- struct{}{}:
	default:
	}
}

// RemoteSource - the game is owned by a session authority and mirrored through a client session.
type RemoteSource struct {
	logger  *slog.Logger
	session *client.Session
}

func NewRemoteSource(logger *slog.Logger, session *client.Session) *RemoteSource {
	return &RemoteSource{
		logger:  logger.With("component", "remote_source", "sessionID", session.ID()),
		session: session,
	}
}

func (that *RemoteSource) Game() (*entity.Game, bool) {
	snap := that.session.Snapshot()
	if snap == nil {
		return nil, false
	}

	return &snap.Game, true
}

func (that *RemoteSource) Play(ctx context.Context, index entity.CellIndex) {
	go func() {
		that.report("Play", that.session.Propose(ctx, index))
	}()
}

func (that *RemoteSource) Restart(ctx context.Context) {
	go func() {
		that.report("Restart", that.session.Reset(ctx))
	}()
}

func (that *RemoteSource) Status() string {
	switch {
	case that.session.Err() != nil:
		return "connection lost, retrying"
	case that.session.InFlight():
		return "waiting for the server"
	default:
		return "session " + that.session.ID()
	}
}

func (that *RemoteSource) Changed() <-chan struct{} {
	return that.session.Changed()
}

func (that *RemoteSource) report(method string, err error) {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, apperror.ErrClientClosed) {
		return
	}

	that.logger.Debug("request not applied", "method", method, "error", err)
}
