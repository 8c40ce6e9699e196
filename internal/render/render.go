// Package render draws a game as coloured plain text.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

const (
	colorX = "1"
	colorO = "4"

	rowSeparator = "---+---+---"
)

type Renderer struct {
	out *termenv.Output
}

// New - renders for the terminal behind w, detecting its colour support.
func New(w io.Writer) *Renderer {
	return &Renderer{out: termenv.NewOutput(w)}
}

// NewWithProfile - renders with a fixed colour profile; termenv.Ascii gives uncoloured text.
func NewWithProfile(w io.Writer, profile termenv.Profile) *Renderer {
	return &Renderer{out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

// Board - three rows of cells separated by grid lines. Empty cells show the digit that claims them,
// the winning line is underlined.
func (that *Renderer) Board(game *entity.Game) string {
	board := game.Board()
	line, won := board.WinningLine()

	var sb strings.Builder

	for index, cell := range board.Positions() {
		if index.Col() > 0 {
			sb.WriteString("|")
		}

		sb.WriteString(" ")
		sb.WriteString(that.cell(index, cell, won && onLine(line, index)))
		sb.WriteString(" ")

		if index.Col() == 2 {
			sb.WriteString("\n")

			if index.Row() < 2 {
				sb.WriteString(rowSeparator)
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

func (that *Renderer) cell(index entity.CellIndex, cell entity.Cell, highlighted bool) string {
	switch cell {
	case entity.X, entity.O:
		style := that.out.String(cell.String()).Bold()

		if cell == entity.X {
			style = style.Foreground(that.out.Color(colorX))
		} else {
			style = style.Foreground(that.out.Color(colorO))
		}

		if highlighted {
			style = style.Underline()
		}

		return style.String()
	default:
		return that.out.String(KeyFor(index)).Faint().String()
	}
}

// Print - writes the board followed by the status line and, when set, a note.
func (that *Renderer) Print(w io.Writer, game *entity.Game, note string) error {
	text := that.Board(game) + Status(game) + "\n"
	if note != "" {
		text += note + "\n"
	}

	if _, err := fmt.Fprint(w, text); err != nil {
		return fmt.Errorf("failed to print board: %w", err)
	}

	return nil
}

// Status - one line describing whose turn it is or how the game ended.
func Status(game *entity.Game) string {
	outcome := game.Outcome()

	switch outcome.Kind() {
	case entity.Won:
		return outcome.Winner().String() + " wins"
	case entity.Draw:
		return "Draw"
	default:
		return game.Turn().String() + " to move"
	}
}

// KeyFor - the digit key that selects index, 1 through 9 in row-major order.
func KeyFor(index entity.CellIndex) string {
	return strconv.Itoa(index.Offset() + 1)
}

// IndexForKey - the cell selected by a digit key, false for any other rune.
func IndexForKey(key rune) (entity.CellIndex, bool) {
	if key < '1' || key > '9' {
		return 0, false
	}

	return entity.MustCellIndex(int(key - '1')), true
}

func onLine(line entity.Line, index entity.CellIndex) bool {
	for _, member := range line {
		if member == index {
			return true
		}
	}

	return false
}
