package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type sessionUseCase interface {
	CreateSession(ctx context.Context) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	ProposeMove(ctx context.Context, id string, offset int) (*entity.Session, error)
	ResetSession(ctx context.Context, id string) (*entity.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type Server struct {
	logger  *slog.Logger
	handler http.Handler
}

func New(logger *slog.Logger, sessions sessionUseCase) *Server {
	log := logger.With("component", "rest")

	handlers := NewHandlers(log, sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", NewPingHandler().PingHandler)
	mux.HandleFunc("POST /sessions", handlers.CreateSession)
	mux.HandleFunc("GET /sessions/{id}", handlers.GetSession)
	mux.HandleFunc("PUT /sessions/{id}", handlers.ProposeMove)
	mux.HandleFunc("DELETE /sessions/{id}", handlers.DeleteSession)
	mux.HandleFunc("POST /sessions/{id}/reset", handlers.ResetSession)

	return &Server{
		logger:  log,
		handler: logRequests(log, mux),
	}
}

func (that *Server) Handler() http.Handler {
	return that.handler
}

// Start - serves HTTP on port until ctx is canceled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
