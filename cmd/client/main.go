package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	app "github.com/rocketscienceinc/tictactoe-session/internal"
	"github.com/rocketscienceinc/tictactoe-session/internal/client"
	"github.com/rocketscienceinc/tictactoe-session/internal/config"
	"github.com/rocketscienceinc/tictactoe-session/internal/render"
	"github.com/rocketscienceinc/tictactoe-session/internal/tui"
)

const configPath = "config.yml"

// main - plays a session hosted by the authority at SERVER_URL. Without SESSION_ID a new session is created
// and its id printed so a second player can join.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "tictactoe-client: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conf, err := loadConfig()
	if err != nil {
		return err
	}

	// the terminal UI owns stdout and stderr is under the screen, so only line mode logs
	logOutput := io.Discard
	if conf.Client.Plain {
		logOutput = os.Stderr
	}

	logger := app.NewLogger(logOutput, conf.LogLevel)

	api := client.NewAPI(conf.Client.ServerURL, nil)

	sessionID := conf.Client.SessionID
	if sessionID == "" {
		created, err := api.Create(ctx)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		sessionID = created.ID
		fmt.Fprintf(os.Stderr, "created session %s (join with SESSION_ID=%s)\n", sessionID, sessionID)
	}

	opts := []client.Option{client.WithPollInterval(conf.Client.PollInterval)}
	if conf.Client.SocketURL != "" {
		opts = append(opts, client.WithFollower(client.WebsocketFollower(logger, conf.Client.SocketURL, sessionID)))
	}

	mirror := client.NewSession(logger, api, sessionID, opts...)
	defer mirror.Close()

	go func() {
		if err := mirror.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("session mirror stopped", "error", err)
		}
	}()

	source := tui.NewRemoteSource(logger, mirror)

	if conf.Client.Plain {
		return tui.RunPlain(ctx, source, render.New(os.Stdout), os.Stdin, os.Stdout)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}

	if err = screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	defer screen.Fini()

	return tui.New(screen, source).Run(ctx)
}

// loadConfig - config.yml when present in the working directory, the environment otherwise.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return config.LoadEnv()
	}

	return config.Load(configPath)
}
