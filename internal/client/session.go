package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

const defaultPollInterval = time.Second

type authority interface {
	Fetch(ctx context.Context, id string) (*entity.Session, error)
	Propose(ctx context.Context, id string, index entity.CellIndex) (*entity.Session, error)
	Reset(ctx context.Context, id string) (*entity.Session, error)
}

type Option func(*Session)

func WithPollInterval(interval time.Duration) Option {
	return func(that *Session) {
		that.pollInterval = interval
	}
}

// WithFollower - adds a push subscription next to polling; polling keeps running as a fallback.
func WithFollower(follower Follower) Option {
	return func(that *Session) {
		that.follower = follower
	}
}

// WithBackOff - sets the retry policy used after failed polls and dropped subscriptions.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(that *Session) {
		that.newBackOff = newBackOff
	}
}

// Session mirrors one authority session. It only ever shows states the authority returned: a move is
// proposed, never applied locally, and the mirror changes when the answer arrives.
type Session struct {
	logger *slog.Logger
	api    authority
	id     string

	pollInterval time.Duration
	follower     Follower
	newBackOff   func() backoff.BackOff

	mu      sync.RWMutex
	last    *entity.Session
	lastErr error

	inFlight atomic.Bool
	changed  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewSession(logger *slog.Logger, api authority, id string, opts ...Option) *Session {
	session := &Session{
		logger:       logger.With("component", "client_session", "sessionID", id),
		api:          api,
		id:           id,
		pollInterval: defaultPollInterval,
		newBackOff:   defaultBackOff,
		changed:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(session)
	}

	return session
}

func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0

	return policy
}

func (that *Session) ID() string {
	return that.id
}

// Snapshot - the last state received from the authority, or nil before the first one. Never blocks on
// the network; the returned value is a copy.
func (that *Session) Snapshot() *entity.Session {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.last == nil {
		return nil
	}

	copied := *that.last

	return &copied
}

// Err - the last transport failure, cleared by the next successful exchange.
func (that *Session) Err() error {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.lastErr
}

// Changed - signalled after every change of Snapshot or Err. Several changes may collapse into one signal.
func (that *Session) Changed() <-chan struct{} {
	return that.changed
}

func (that *Session) InFlight() bool {
	return that.inFlight.Load()
}

// Refresh - fetches the authority's state. On failure the previous snapshot stays in place.
func (that *Session) Refresh(ctx context.Context) error {
	if that.closed() {
		return apperror.ErrClientClosed
	}

	callCtx, cancel := that.bind(ctx)
	defer cancel()

	session, err := that.api.Fetch(callCtx, that.id)
	if abandonErr := that.abandoned(callCtx); abandonErr != nil {
		return abandonErr
	}

	if err != nil {
		that.fail(err)
		return fmt.Errorf("failed to refresh session: %w", err)
	}

	that.adopt(session)

	return nil
}

// Propose - sends a move for the active mark. Only one proposal may be outstanding; a second one fails
// with ErrProposalInFlight without reaching the authority. A rejection still updates the mirror when the
// authority sent its current state along.
func (that *Session) Propose(ctx context.Context, index entity.CellIndex) error {
	return that.exchange(ctx, "Propose", func(callCtx context.Context) (*entity.Session, error) {
		return that.api.Propose(callCtx, that.id, index)
	})
}

// Reset - asks the authority for a fresh game. Shares the in-flight slot with Propose.
func (that *Session) Reset(ctx context.Context) error {
	return that.exchange(ctx, "Reset", func(callCtx context.Context) (*entity.Session, error) {
		return that.api.Reset(callCtx, that.id)
	})
}

func (that *Session) exchange(ctx context.Context, method string, call func(ctx context.Context) (*entity.Session, error)) error {
	if that.closed() {
		return apperror.ErrClientClosed
	}

	if !that.inFlight.CompareAndSwap(false, true) {
		return apperror.ErrProposalInFlight
	}
	that.signal()

	defer func() {
		that.inFlight.Store(false)
		that.signal()
	}()

	callCtx, cancel := that.bind(ctx)
	defer cancel()

	session, err := call(callCtx)
	if abandonErr := that.abandoned(callCtx); abandonErr != nil {
		that.logger.Debug("response discarded", "method", method, "reason", abandonErr)
		return abandonErr
	}

	if session != nil {
		that.adopt(session)
	}

	if err != nil {
		if errors.Is(err, apperror.ErrTransport) {
			that.fail(err)
		}

		return err
	}

	return nil
}

// Run - keeps the mirror current until ctx ends or Close is called. Polls every poll interval, backing
// off exponentially while the authority is unreachable, and follows pushes when a follower is set.
func (that *Session) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	ctx, cancel := that.bind(ctx)
	defer cancel()

	if that.follower != nil {
		go that.follow(ctx)
	}

	policy := that.newBackOff()

	for {
		wait := that.pollInterval

		if err := that.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return that.exitErr(ctx)
			}

			if next := policy.NextBackOff(); next != backoff.Stop {
				wait = next
			}

			log.Warn("poll failed", "error", err, "retryIn", wait)
		} else {
			policy.Reset()
		}

		if !sleep(ctx, wait) {
			return that.exitErr(ctx)
		}
	}
}

func (that *Session) follow(ctx context.Context) {
	log := that.logger.With("method", "follow")
	policy := backoff.WithContext(that.newBackOff(), ctx)

	for ctx.Err() == nil {
		updates, err := that.follower(ctx)
		if err != nil {
			next := policy.NextBackOff()
			if next == backoff.Stop {
				return
			}

			log.Debug("subscription failed", "error", err, "retryIn", next)
			sleep(ctx, next)

			continue
		}

		policy.Reset()

		for session := range updates {
			that.adopt(session)
		}
	}
}

// Close - stops Run and abandons outstanding calls. Their responses are discarded; Snapshot keeps the
// last adopted state.
func (that *Session) Close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

func (that *Session) closed() bool {
	select {
	case <-that.done:
		return true
	default:
		return false
	}
}

// bind derives a context that is also canceled by Close.
func (that *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		select {
		case <-that.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

func (that *Session) abandoned(ctx context.Context) error {
	if that.closed() {
		return apperror.ErrClientClosed
	}

	return ctx.Err()
}

func (that *Session) exitErr(ctx context.Context) error {
	if that.closed() {
		return nil
	}

	return ctx.Err()
}

// adopt takes session unless it is older than what the mirror already shows.
func (that *Session) adopt(session *entity.Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed() || session == nil {
		return
	}

	that.lastErr = nil

	if that.last == nil || session.NewerThan(that.last) {
		that.last = session
	}

	that.signal()
}

func (that *Session) fail(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed() {
		return
	}

	that.lastErr = err
	that.signal()
}

func (that *Session) signal() {
	select {
	case that.changed <- struct{}{}:
	default:
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
