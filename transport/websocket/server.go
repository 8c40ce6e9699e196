package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/snapshot"
)

const (
	defaultPingInterval = 15 * time.Second
	writeTimeout        = 5 * time.Second
	shutdownTimeout     = 5 * time.Second
)

type sessionSubscriber interface {
	Subscribe(ctx context.Context, id string) (*entity.Session, <-chan *entity.Session, error)
}

// Server pushes session snapshots to websocket followers. It never accepts moves.
type Server struct {
	logger   *slog.Logger
	sessions sessionSubscriber

	pingInterval time.Duration
	handler      http.Handler
}

func New(logger *slog.Logger, sessions sessionSubscriber) *Server {
	server := &Server{
		logger:       logger.With("component", "websocket"),
		sessions:     sessions,
		pingInterval: defaultPingInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/{id}/ws", server.followSession)
	server.handler = mux

	return server
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start - starts WebSocket server. Open connections are closed when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.handler,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped with error: %w", err)
	}

	return nil
}

func (that *Server) followSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	log := that.logger.With("method", "followSession", "sessionID", id)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	current, updates, err := that.sessions.Subscribe(ctx, id)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to subscribe", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Error("failed to accept websocket", "error", err)
		return
	}

	defer conn.Close(websocket.StatusInternalError, "")

	log.Info("follower connected")

	// followers only listen; CloseRead answers control frames and cancels ctx when they hang up
	ctx = conn.CloseRead(ctx)

	err = that.push(ctx, conn, current, updates)

	switch {
	case err == nil, errors.Is(err, context.Canceled), websocket.CloseStatus(err) != -1:
		log.Info("follower disconnected")
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	default:
		log.Warn("follower dropped", "error", err)
		_ = conn.Close(websocket.StatusInternalError, "push failed")
	}
}

// push - sends current and then every newer state until the follower leaves or the subscription ends.
func (that *Server) push(ctx context.Context, conn *websocket.Conn, current *entity.Session, updates <-chan *entity.Session) error {
	if err := that.send(ctx, conn, current); err != nil {
		return err
	}

	ping := time.NewTicker(that.pingInterval)
	defer ping.Stop()

	last := current

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			if !update.NewerThan(last) {
				continue
			}

			if err := that.send(ctx, conn, update); err != nil {
				return err
			}

			last = update
		case <-ping.C:
			if err := conn.Ping(ctx); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		}
	}
}

func (that *Server) send(ctx context.Context, conn *websocket.Conn, session *entity.Session) error {
	payload, err := json.Marshal(snapshot.Message{
		Action:  snapshot.ActionSessionUpdate,
		Payload: snapshot.FromSession(session),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err = conn.Write(writeCtx, websocket.MessageText, payload); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
