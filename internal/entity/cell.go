package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
)

// Cell is the mark occupying one board position.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

const (
	markX     = "X"
	markO     = "O"
	markEmpty = ""
)

func (that Cell) String() string {
	switch that {
	case X:
		return markX
	case O:
		return markO
	default:
		return markEmpty
	}
}

// Opponent - returns the mark that moves after this one. Empty has no opponent.
func (that Cell) Opponent() Cell {
	switch that {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

func (that Cell) IsMark() bool {
	return that == X || that == O
}

func (that Cell) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Cell) UnmarshalText(text []byte) error {
	cell, err := ParseCell(string(text))
	if err != nil {
		return err
	}

	*that = cell

	return nil
}

// ParseCell - converts the wire form of a cell back into a Cell.
func ParseCell(text string) (Cell, error) {
	switch text {
	case markEmpty:
		return Empty, nil
	case markX:
		return X, nil
	case markO:
		return O, nil
	default:
		return Empty, fmt.Errorf("%w: unknown cell %q", apperror.ErrMalformedSnapshot, text)
	}
}

// CellIndex is one of the nine board positions in row-major order.
type CellIndex uint8

const (
	TopLeft CellIndex = iota
	TopMiddle
	TopRight
	MiddleLeft
	Center
	MiddleRight
	BottomLeft
	BottomMiddle
	BottomRight
)

const BoardSize = 9

var cellIndexNames = [BoardSize]string{
	"top-left", "top-middle", "top-right",
	"middle-left", "center", "middle-right",
	"bottom-left", "bottom-middle", "bottom-right",
}

// NewCellIndex - converts a linear offset into a CellIndex. Offsets outside [0,8] are rejected.
func NewCellIndex(offset int) (CellIndex, error) {
	if offset < 0 || offset >= BoardSize {
		return 0, fmt.Errorf("%w: %d", apperror.ErrOutOfRangeIndex, offset)
	}

	return CellIndex(offset), nil
}

// MustCellIndex is NewCellIndex for offsets known to be valid; it panics otherwise.
func MustCellIndex(offset int) CellIndex {
	index, err := NewCellIndex(offset)
	if err != nil {
		panic(err)
	}

	return index
}

// AllCellIndexes - returns every position in canonical order.
func AllCellIndexes() [BoardSize]CellIndex {
	return [BoardSize]CellIndex{
		TopLeft, TopMiddle, TopRight,
		MiddleLeft, Center, MiddleRight,
		BottomLeft, BottomMiddle, BottomRight,
	}
}

func (that CellIndex) Offset() int {
	return int(that)
}

func (that CellIndex) Row() int {
	return int(that) / 3
}

func (that CellIndex) Col() int {
	return int(that) % 3
}

func (that CellIndex) String() string {
	if int(that) >= BoardSize {
		return fmt.Sprintf("CellIndex(%d)", that)
	}

	return cellIndexNames[that]
}
