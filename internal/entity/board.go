package entity

import (
	"fmt"
	"iter"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
)

// Line is one of the eight triples checked for a win.
type Line [3]CellIndex

// Lines are scanned in this order: rows, columns, then diagonals.
// When several lines are complete the first one found wins.
var Lines = [8]Line{
	{TopLeft, TopMiddle, TopRight},
	{MiddleLeft, Center, MiddleRight},
	{BottomLeft, BottomMiddle, BottomRight},
	{TopLeft, MiddleLeft, BottomLeft},
	{TopMiddle, Center, BottomMiddle},
	{TopRight, MiddleRight, BottomRight},
	{TopLeft, Center, BottomRight},
	{TopRight, Center, BottomLeft},
}

type Board struct {
	cells [BoardSize]Cell
}

// BoardOf - builds a board from cells in canonical order.
func BoardOf(cells [BoardSize]Cell) Board {
	return Board{cells: cells}
}

// SetCell - writes value into the slot at index. The slot must be Empty.
func (that *Board) SetCell(index CellIndex, value Cell) error {
	if that.cells[index] != Empty {
		return fmt.Errorf("%w: %s holds %s", apperror.ErrCellOccupied, index, that.cells[index])
	}

	that.cells[index] = value

	return nil
}

func (that Board) Get(index CellIndex) Cell {
	return that.cells[index]
}

func (that Board) Cells() [BoardSize]Cell {
	return that.cells
}

// Positions - iterates over all positions in row-major order.
func (that Board) Positions() iter.Seq2[CellIndex, Cell] {
	return func(yield func(CellIndex, Cell) bool) {
		for _, index := range AllCellIndexes() {
			if !yield(index, that.cells[index]) {
				return
			}
		}
	}
}

func (that Board) WinningLine() (Line, bool) {
	for _, line := range Lines {
		a, b, c := that.cells[line[0]], that.cells[line[1]], that.cells[line[2]]
		if a != Empty && a == b && b == c {
			return line, true
		}
	}

	return Line{}, false
}

func (that Board) WinningMark() (Cell, bool) {
	line, ok := that.WinningLine()
	if !ok {
		return Empty, false
	}

	return that.cells[line[0]], true
}

func (that Board) IsFull() bool {
	for _, cell := range that.cells {
		if cell == Empty {
			return false
		}
	}

	return true
}

func (that Board) Count(value Cell) int {
	count := 0
	for _, cell := range that.cells {
		if cell == value {
			count++
		}
	}

	return count
}

// Consistent reports whether X is level with O or exactly one move ahead.
func (that Board) Consistent() bool {
	diff := that.Count(X) - that.Count(O)
	return diff == 0 || diff == 1
}
