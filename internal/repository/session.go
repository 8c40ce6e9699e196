package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

const (
	sessionKeyPrefix  = "session:"
	defaultMaxRetries = 8
)

// UpdateFunc mutates a session inside an atomic read-modify-write. Returning an error discards the change.
type UpdateFunc = func(session *entity.Session) error

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbSession struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries uint64
}

// NewSessionRepository - stores sessions as JSON snapshots under "session:<id>". A zero ttl keeps them forever.
func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &dbSession{
		client:     client,
		ttl:        ttl,
		maxRetries: defaultMaxRetries,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (that *dbSession) Create(ctx context.Context, session *entity.Session) error {
	sessionJSON, err := snapshot.Encode(session)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	created, err := that.client.SetNX(ctx, sessionKey(session.ID), sessionJSON, that.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: session %s already exists", apperror.ErrConflict, session.ID)
	}

	return nil
}

func (that *dbSession) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKey(id)).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	session, err := snapshot.Decode(response)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return session, nil
}

// Update - applies fn under WATCH so that two writers racing on the same session never both commit
// against the same starting state. A lost race is retried with backoff.
func (that *dbSession) Update(ctx context.Context, id string, fn UpdateFunc) (*entity.Session, error) {
	key := sessionKey(id)

	var updated *entity.Session

	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperror.ErrSessionNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}

		session, err := snapshot.Decode(response)
		if err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		if err = fn(session); err != nil {
			return err
		}

		sessionJSON, err := snapshot.Encode(session)
		if err != nil {
			return fmt.Errorf("could not marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, sessionJSON, that.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		updated = session

		return nil
	}

	operation := func() error {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			return err
		}

		if err != nil {
			return backoff.Permanent(err)
		}

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newRetryBackOff(), that.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, fmt.Errorf("%w: session %s", apperror.ErrConflict, id)
		}

		return nil, err
	}

	return updated, nil
}

func (that *dbSession) DeleteByID(ctx context.Context, id string) error {
	deleted, err := that.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session by ID: %w", err)
	}

	if deleted == 0 {
		return apperror.ErrSessionNotFound
	}

	return nil
}

func newRetryBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 200 * time.Millisecond

	return policy
}
