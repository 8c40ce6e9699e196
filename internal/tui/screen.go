// Package tui is the terminal front end: a tcell grid driven by the digit keys and a plain line mode.
package tui

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
	"github.com/rocketscienceinc/tictactoe-session/internal/render"
)

const (
	originX = 2
	originY = 1

	cellWidth  = 4
	cellHeight = 2

	gameOverBanner = "SPACE play again, ESC exit"
	playingHelp    = "1-9 to move, ESC exit"
	waitingText    = "waiting for the session..."
)

var (
	styleDefault = tcell.StyleDefault
	styleGrid    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleKey     = tcell.StyleDefault.Foreground(tcell.ColorGray).Dim(true)
	styleX       = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleO       = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	styleBanner  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

type UI struct {
	screen tcell.Screen
	source Source
}

func New(screen tcell.Screen, source Source) *UI {
	return &UI{
		screen: screen,
		source: source,
	}
}

// Run - draws and handles keys until ESC, ctx cancellation or the screen is finalized.
func (that *UI) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := that.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}

			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	that.Draw()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !that.Handle(ctx, ev) {
				return nil
			}
		case <-that.source.Changed():
		}

		that.Draw()
	}
}

// Handle - reacts to one event and reports whether the UI should keep running.
func (that *UI) Handle(ctx context.Context, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return that.handleKey(ctx, ev)
	case *tcell.EventResize:
		that.screen.Sync()
	}

	return true
}

func (that *UI) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}

	if ev.Key() != tcell.KeyRune {
		return true
	}

	game, ok := that.source.Game()
	if !ok {
		return true
	}

	if game.Outcome().IsOver() {
		if ev.Rune() == ' ' {
			that.source.Restart(ctx)
		}

		return true
	}

	if index, ok := render.IndexForKey(ev.Rune()); ok {
		that.source.Play(ctx, index)
	}

	return true
}

func (that *UI) Draw() {
	that.screen.Clear()

	game, ok := that.source.Game()
	if !ok {
		that.text(originX, originY, waitingText, styleDefault)
		that.text(originX, originY+1, that.source.Status(), styleGrid)
		that.screen.Show()

		return
	}

	that.drawGrid()

	line, won := game.Board().WinningLine()
	for index, cell := range game.Board().Positions() {
		that.drawCell(index, cell, won && onLine(line, index))
	}

	statusY := originY + 3*cellHeight
	that.text(originX, statusY, render.Status(game), styleDefault)
	that.text(originX, statusY+1, that.source.Status(), styleGrid)

	if game.Outcome().IsOver() {
		that.text(originX, statusY+3, gameOverBanner, styleBanner)
	} else {
		that.text(originX, statusY+3, playingHelp, styleGrid)
	}

	that.screen.Show()
}

func (that *UI) drawGrid() {
	for row := 0; row < 3; row++ {
		y := originY + row*cellHeight

		for col := 1; col < 3; col++ {
			that.screen.SetContent(originX+col*cellWidth-1, y, '│', nil, styleGrid)
		}

		if row == 2 {
			continue
		}

		for x := 0; x < 3*cellWidth-1; x++ {
			glyph := '─'
			if x%cellWidth == cellWidth-1 {
				glyph = '┼'
			}

			that.screen.SetContent(originX+x, y+1, glyph, nil, styleGrid)
		}
	}
}

func (that *UI) drawCell(index entity.CellIndex, cell entity.Cell, highlighted bool) {
	x := originX + index.Col()*cellWidth + 1
	y := originY + index.Row()*cellHeight

	var (
		glyph rune
		style tcell.Style
	)

	switch cell {
	case entity.X:
		glyph, style = 'X', styleX
	case entity.O:
		glyph, style = 'O', styleO
	default:
		glyph, style = rune(render.KeyFor(index)[0]), styleKey
	}

	if highlighted {
		style = style.Reverse(true)
	}

	that.screen.SetContent(x, y, glyph, nil, style)
}

func (that *UI) text(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		that.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func onLine(line entity.Line, index entity.CellIndex) bool {
	for _, member := range line {
		if member == index {
			return true
		}
	}

	return false
}
