package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
)

type OutcomeKind uint8

const (
	InProgress OutcomeKind = iota
	Won
	Draw
)

const (
	StatusInProgress = "in_progress"
	StatusWon        = "won"
	StatusDraw       = "draw"
)

func (that OutcomeKind) String() string {
	switch that {
	case Won:
		return StatusWon
	case Draw:
		return StatusDraw
	default:
		return StatusInProgress
	}
}

// ParseOutcomeKind - converts the wire tag of an outcome back into its kind.
func ParseOutcomeKind(text string) (OutcomeKind, error) {
	switch text {
	case StatusInProgress:
		return InProgress, nil
	case StatusWon:
		return Won, nil
	case StatusDraw:
		return Draw, nil
	default:
		return InProgress, fmt.Errorf("%w: unknown outcome %q", apperror.ErrMalformedSnapshot, text)
	}
}

// Outcome is InProgress, Won(mark) or Draw. The winner is set only for Won.
type Outcome struct {
	kind   OutcomeKind
	winner Cell
}

func Ongoing() Outcome {
	return Outcome{kind: InProgress}
}

func WonBy(mark Cell) Outcome {
	return Outcome{kind: Won, winner: mark}
}

func Drawn() Outcome {
	return Outcome{kind: Draw}
}

func (that Outcome) Kind() OutcomeKind {
	return that.kind
}

// Winner - returns the winning mark, Empty unless the outcome is Won.
func (that Outcome) Winner() Cell {
	return that.winner
}

func (that Outcome) IsOver() bool {
	return that.kind != InProgress
}

func (that Outcome) String() string {
	if that.kind == Won {
		return fmt.Sprintf("%s(%s)", that.kind, that.winner)
	}

	return that.kind.String()
}

// Game owns the board, the active mark and the outcome. All three change only through ApplyMove and Reset.
type Game struct {
	board   Board
	turn    Cell
	outcome Outcome
}

func NewGame() *Game {
	return &Game{
		turn:    X,
		outcome: Ongoing(),
	}
}

// Restore - rebuilds a game from a received board, turn and outcome, rejecting any combination
// that could not have been reached by legal play.
func Restore(board Board, turn Cell, outcome Outcome) (*Game, error) {
	if !board.Consistent() {
		return nil, fmt.Errorf("%w: %d X against %d O", apperror.ErrMalformedSnapshot, board.Count(X), board.Count(O))
	}

	expected := Ongoing()
	if winner, ok := board.WinningMark(); ok {
		expected = WonBy(winner)
	} else if board.IsFull() {
		expected = Drawn()
	}

	if outcome != expected {
		return nil, fmt.Errorf("%w: outcome %s does not match board (%s)", apperror.ErrMalformedSnapshot, outcome, expected)
	}

	if !turn.IsMark() {
		return nil, fmt.Errorf("%w: turn %q", apperror.ErrMalformedSnapshot, turn)
	}

	nextByCount := X
	if board.Count(X) > board.Count(O) {
		nextByCount = O
	}

	// a finished game keeps the mark that made the last move
	lastByCount := nextByCount.Opponent()

	switch {
	case !outcome.IsOver() && turn != nextByCount:
		return nil, fmt.Errorf("%w: %s to move after %d moves", apperror.ErrMalformedSnapshot, turn, board.Count(X)+board.Count(O))
	case outcome.IsOver() && turn != lastByCount:
		return nil, fmt.Errorf("%w: finished game ended on %s, not %s", apperror.ErrMalformedSnapshot, lastByCount, turn)
	case outcome.Kind() == Won && outcome.Winner() != lastByCount:
		return nil, fmt.Errorf("%w: %s won but %s moved last", apperror.ErrMalformedSnapshot, outcome.Winner(), lastByCount)
	}

	return &Game{board: board, turn: turn, outcome: outcome}, nil
}

func (that *Game) Board() Board {
	return that.board
}

// Turn - returns the active mark. Once the game is over it stays on the mark that made the last move.
func (that *Game) Turn() Cell {
	return that.turn
}

func (that *Game) Outcome() Outcome {
	return that.outcome
}

func (that *Game) Moves() int {
	return BoardSize - that.board.Count(Empty)
}

// ApplyMove - places the active mark at index and recomputes the outcome.
// A rejected move leaves the game untouched.
func (that *Game) ApplyMove(index CellIndex) error {
	if that.outcome.IsOver() {
		return apperror.ErrGameFinished
	}

	if err := that.board.SetCell(index, that.turn); err != nil {
		return err
	}

	switch winner, ok := that.board.WinningMark(); {
	case ok:
		that.outcome = WonBy(winner)
	case that.board.IsFull():
		that.outcome = Drawn()
	default:
		that.turn = that.turn.Opponent()
	}

	return nil
}

func (that *Game) Reset() {
	*that = *NewGame()
}
