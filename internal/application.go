package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-session/internal/config"
	"github.com/rocketscienceinc/tictactoe-session/internal/notify"
	"github.com/rocketscienceinc/tictactoe-session/internal/repository"
	"github.com/rocketscienceinc/tictactoe-session/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-session/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-session/transport/rest"
	"github.com/rocketscienceinc/tictactoe-session/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the session authority until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sessionRepo, notifier, closer, err := openStorage(ctx, logger, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closer.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	sessionManager := usecase.NewSessionManager(logger, sessionRepo, notifier)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		httpErrCh <- rest.New(logger, sessionManager).Start(ctx, conf.HTTPPort)
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsErrCh <- websocket.New(logger, sessionManager).Start(ctx, conf.SocketPort)
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Received signal, shutting down")
	}

	return errors.Join(<-httpErrCh, <-wsErrCh)
}

// openStorage - picks the session store and the broker that goes with it.
func openStorage(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.SessionRepository, notify.Notifier, io.Closer, error) {
	switch conf.Storage.Driver {
	case config.DriverMemory:
		return repository.NewMemorySessionRepository(), notify.NewMemoryNotifier(), noopCloser{}, nil

	case config.DriverDynamo:
		db, err := storage.NewDynamoStorage(ctx, conf.Storage.DynamoRegion, conf.Storage.DynamoEndpoint, conf.Storage.DynamoTable)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("could not connect to dynamo storage: %w", err)
		}

		// pushes stay in process: followers must connect to the instance that applied the move
		return repository.NewDynamoSessionRepository(db, conf.Storage.DynamoTable, conf.Session.TTL), notify.NewMemoryNotifier(), noopCloser{}, nil

	default:
		redisAddrString := conf.Redis.GetRedisAddr()
		if conf.Redis.Host == "" {
			return nil, nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewSessionRepository(redisStorage, conf.Session.TTL), notify.NewRedisNotifier(logger, redisStorage), redisStorage, nil
	}
}

// NewLogger - JSON logs on w at the configured level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
