package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"nhooyr.io/websocket"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

// Follower opens a push subscription for one session.
type Follower func(ctx context.Context) (<-chan *entity.Session, error)

// WebsocketFollower - follows /sessions/{id}/ws on socketURL. The channel is closed when the connection
// drops or ctx ends; malformed messages are logged and skipped.
func WebsocketFollower(logger *slog.Logger, socketURL, id string) Follower {
	log := logger.With("component", "follower", "sessionID", id)
	endpoint := strings.TrimRight(socketURL, "/") + "/sessions/" + url.PathEscape(id) + "/ws"

	return func(ctx context.Context) (<-chan *entity.Session, error) {
		conn, resp, err := websocket.Dial(ctx, endpoint, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %w", apperror.ErrTransport, endpoint, err)
		}

		updates := make(chan *entity.Session, 1)

		go func() {
			defer close(updates)
			defer conn.Close(websocket.StatusNormalClosure, "")

			for {
				_, data, err := conn.Read(ctx)
				if err != nil {
					log.Debug("follow ended", "error", err)
					return
				}

				var msg snapshot.Message
				if err = json.Unmarshal(data, &msg); err != nil || msg.Action != snapshot.ActionSessionUpdate {
					log.Warn("skipping unexpected message", "error", err, "action", msg.Action)
					continue
				}

				session, err := msg.Payload.Session()
				if err != nil {
					log.Warn("skipping malformed snapshot", "error", err)
					continue
				}

				select {
				case updates <- session:
				case <-ctx.Done():
					return
				}
			}
		}()

		return updates, nil
	}
}
