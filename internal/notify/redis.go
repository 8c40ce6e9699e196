package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

type redisNotifier struct {
	logger *slog.Logger
	client *redis.Client
}

// NewRedisNotifier - publishes snapshots on "session:<id>:updates" so every authority instance sharing
// the redis can serve push subscribers.
func NewRedisNotifier(logger *slog.Logger, client *redis.Client) Notifier {
	return &redisNotifier{
		logger: logger.With("component", "notify"),
		client: client,
	}
}

func updatesChannel(id string) string {
	return "session:" + id + ":updates"
}

func (that *redisNotifier) Publish(ctx context.Context, session *entity.Session) error {
	payload, err := snapshot.Encode(session)
	if err != nil {
		return err
	}

	if err = that.client.Publish(ctx, updatesChannel(session.ID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish session update: %w", err)
	}

	return nil
}

func (that *redisNotifier) Subscribe(ctx context.Context, id string) (<-chan *entity.Session, error) {
	log := that.logger.With("method", "Subscribe", "sessionID", id)

	pubsub := that.client.Subscribe(ctx, updatesChannel(id))

	// wait for the subscription to be confirmed so no publish after this call is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session updates: %w", err)
	}

	out := make(chan *entity.Session, 1)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				session, err := snapshot.Decode([]byte(msg.Payload))
				if err != nil {
					log.Error("dropping malformed session update", "error", err)
					continue
				}

				offerLatest(out, session)
			}
		}
	}()

	return out, nil
}
