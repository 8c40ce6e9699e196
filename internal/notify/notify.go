// Package notify fans accepted session states out to push subscribers.
package notify

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

// Notifier publishes session updates and lets readers follow one session.
// A subscription channel is closed once its context is done; slow readers only ever miss
// intermediate states, never the latest one.
type Notifier interface {
	Publish(ctx context.Context, session *entity.Session) error
	Subscribe(ctx context.Context, id string) (<-chan *entity.Session, error)
}

// offerLatest delivers session on a one-slot channel, replacing any state the reader has not taken yet.
func offerLatest(ch chan *entity.Session, session *entity.Session) {
	for {
		select {
		case ch <- session:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}
