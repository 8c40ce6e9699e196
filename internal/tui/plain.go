package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rocketscienceinc/tictactoe-session/internal/render"
)

const plainHelp = "type 1-9 and enter to move, r to restart a finished game, q to quit"

// RunPlain - line mode for terminals without cursor control: prints the board on every change and reads
// one command per line from in. Returns at EOF, on "q" or when ctx ends.
func RunPlain(ctx context.Context, source Source, renderer *render.Renderer, in io.Reader, out io.Writer) error {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()

	if _, err := fmt.Fprintln(out, plainHelp); err != nil {
		return fmt.Errorf("failed to print help: %w", err)
	}

	if err := printGame(source, renderer, out); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || line == "q" {
				return nil
			}

			handleLine(ctx, source, line)
		case <-source.Changed():
			if err := printGame(source, renderer, out); err != nil {
				return err
			}
		}
	}
}

func handleLine(ctx context.Context, source Source, line string) {
	game, ok := source.Game()
	if !ok {
		return
	}

	if line == "r" {
		if game.Outcome().IsOver() {
			source.Restart(ctx)
		}

		return
	}

	if len(line) != 1 || game.Outcome().IsOver() {
		return
	}

	if index, ok := render.IndexForKey(rune(line[0])); ok {
		source.Play(ctx, index)
	}
}

func printGame(source Source, renderer *render.Renderer, out io.Writer) error {
	game, ok := source.Game()
	if !ok {
		_, err := fmt.Fprintln(out, waitingText)
		return err
	}

	return renderer.Print(out, game, source.Status())
}
