package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/pkg"
)

const maxCreateAttempts = 3

type sessionRepo interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Update(ctx context.Context, id string, fn func(session *entity.Session) error) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type notifier interface {
	Publish(ctx context.Context, session *entity.Session) error
	Subscribe(ctx context.Context, id string) (<-chan *entity.Session, error)
}

// SessionManager is the authority: the only place a stored session is mutated.
type SessionManager struct {
	logger   *slog.Logger
	repo     sessionRepo
	notifier notifier

	generateID func() (string, error)
}

func NewSessionManager(logger *slog.Logger, repo sessionRepo, notifier notifier) *SessionManager {
	return &SessionManager{
		logger:   logger.With("component", "session_manager"),
		repo:     repo,
		notifier: notifier,

		generateID: pkg.GenerateSessionID,
	}
}

// CreateSession - starts a fresh game under a new id.
func (that *SessionManager) CreateSession(ctx context.Context) (*entity.Session, error) {
	log := that.logger.With("method", "CreateSession")

	for attempt := 1; ; attempt++ {
		id, err := that.generateID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session id: %w", err)
		}

		session := entity.NewSession(id)

		err = that.repo.Create(ctx, session)
		if errors.Is(err, apperror.ErrConflict) && attempt < maxCreateAttempts {
			log.Warn("session id collision, retrying", "sessionID", id)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}

		log.Info("session created", "sessionID", id)

		return session, nil
	}
}

func (that *SessionManager) GetSession(ctx context.Context, id string) (*entity.Session, error) {
	session, err := that.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// ProposeMove - validates offset and applies the move for whichever mark is active in the stored session.
// A rejected move returns the session as it stood together with the reason, so the caller can re-render it.
func (that *SessionManager) ProposeMove(ctx context.Context, id string, offset int) (*entity.Session, error) {
	log := that.logger.With("method", "ProposeMove", "sessionID", id, "cell", offset)

	index, err := entity.NewCellIndex(offset)
	if err != nil {
		return nil, fmt.Errorf("invalid move: %w", err)
	}

	var current *entity.Session

	updated, err := that.repo.Update(ctx, id, func(session *entity.Session) error {
		if err := session.ApplyMove(index); err != nil {
			rejected := *session
			current = &rejected

			return err
		}

		return nil
	})
	if err != nil {
		if current != nil {
			log.Debug("move rejected", "error", err)
		}

		return current, fmt.Errorf("failed to make move: %w", err)
	}

	log.Debug("move applied", "version", updated.Version, "outcome", updated.Game.Outcome().String())

	that.publish(ctx, updated)

	return updated, nil
}

// ResetSession - replaces the game with a fresh one, keeping the id.
func (that *SessionManager) ResetSession(ctx context.Context, id string) (*entity.Session, error) {
	updated, err := that.repo.Update(ctx, id, func(session *entity.Session) error {
		session.Reset()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset session: %w", err)
	}

	that.logger.Info("session reset", "sessionID", id, "version", updated.Version)

	that.publish(ctx, updated)

	return updated, nil
}

func (that *SessionManager) DeleteSession(ctx context.Context, id string) error {
	if err := that.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	that.logger.Info("session deleted", "sessionID", id)

	return nil
}

// Subscribe - returns the current session and a channel of every later accepted state.
// The subscription is opened before the read so no update in between is lost.
func (that *SessionManager) Subscribe(ctx context.Context, id string) (*entity.Session, <-chan *entity.Session, error) {
	updates, err := that.notifier.Subscribe(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	session, err := that.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, updates, nil
}

// publish failures only delay push subscribers; pollers still see the stored state.
func (that *SessionManager) publish(ctx context.Context, session *entity.Session) {
	if err := that.notifier.Publish(ctx, session); err != nil {
		that.logger.Error("failed to publish session update", "sessionID", session.ID, "error", err)
	}
}
