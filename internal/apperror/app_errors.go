package apperror

import "errors"

var (
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrGameFinished      = errors.New("game is already finished")
	ErrOutOfRangeIndex   = errors.New("cell index out of range")
	ErrSessionNotFound   = errors.New("session not found")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrTransport         = errors.New("transport failure")
	ErrConflict          = errors.New("concurrent session update")
	ErrProposalInFlight  = errors.New("a move proposal is already in flight")
	ErrClientClosed      = errors.New("session mirror is closed")
)
