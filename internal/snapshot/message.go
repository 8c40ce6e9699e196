package snapshot

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
)

const (
	CodeCellOccupied    = "cell_occupied"
	CodeGameOver        = "game_over"
	CodeInvalidCell     = "invalid_cell"
	CodeNotFound        = "not_found"
	CodeBadRequest      = "bad_request"
	CodeInternal        = "internal"
	ActionSessionUpdate = "session:update"
)

// Move is the body of a move proposal.
type Move struct {
	Cell *int `json:"cell"`
}

// Rejection is returned instead of a snapshot when the authority refuses a request.
type Rejection struct {
	Error string    `json:"error"`
	Code  string    `json:"code"`
	Game  *Snapshot `json:"game,omitempty"`
}

// Message is the envelope pushed to websocket subscribers.
type Message struct {
	Action  string   `json:"action"`
	Payload Snapshot `json:"payload"`
}

func DecodeMove(data []byte) (int, error) {
	var move Move

	if err := decodeStrict(data, &move); err != nil {
		return 0, err
	}

	if move.Cell == nil {
		return 0, fmt.Errorf("%w: missing cell", apperror.ErrMalformedSnapshot)
	}

	return *move.Cell, nil
}

// CodeFor - maps a domain error to its wire code.
func CodeFor(err error) string {
	switch {
	case errors.Is(err, apperror.ErrCellOccupied):
		return CodeCellOccupied
	case errors.Is(err, apperror.ErrGameFinished):
		return CodeGameOver
	case errors.Is(err, apperror.ErrOutOfRangeIndex):
		return CodeInvalidCell
	case errors.Is(err, apperror.ErrSessionNotFound):
		return CodeNotFound
	case errors.Is(err, apperror.ErrMalformedSnapshot):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

// ErrorFor - maps a wire code back to the domain error a client should match on.
func ErrorFor(code string) error {
	switch code {
	case CodeCellOccupied:
		return apperror.ErrCellOccupied
	case CodeGameOver:
		return apperror.ErrGameFinished
	case CodeInvalidCell:
		return apperror.ErrOutOfRangeIndex
	case CodeNotFound:
		return apperror.ErrSessionNotFound
	default:
		return apperror.ErrTransport
	}
}
