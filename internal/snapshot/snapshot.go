// Package snapshot defines the JSON documents exchanged between the session authority and its clients.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

// Snapshot is a point-in-time copy of a session: nine cells in canonical order, the active mark,
// the outcome tag and, for a won game, the winning mark.
type Snapshot struct {
	ID      string        `json:"id"`
	Version uint64        `json:"version"`
	Board   []entity.Cell `json:"board"`
	Turn    entity.Cell   `json:"turn"`
	Outcome string        `json:"outcome"`
	Winner  entity.Cell   `json:"winner"`
}

func FromSession(session *entity.Session) Snapshot {
	cells := session.Game.Board().Cells()
	outcome := session.Game.Outcome()

	return Snapshot{
		ID:      session.ID,
		Version: session.Version,
		Board:   cells[:],
		Turn:    session.Game.Turn(),
		Outcome: outcome.Kind().String(),
		Winner:  outcome.Winner(),
	}
}

// Session - validates the snapshot and rebuilds the session it describes.
func (that Snapshot) Session() (*entity.Session, error) {
	if len(that.Board) != entity.BoardSize {
		return nil, fmt.Errorf("%w: %d cells", apperror.ErrMalformedSnapshot, len(that.Board))
	}

	kind, err := entity.ParseOutcomeKind(that.Outcome)
	if err != nil {
		return nil, err
	}

	var outcome entity.Outcome
	switch kind {
	case entity.Won:
		if !that.Winner.IsMark() {
			return nil, fmt.Errorf("%w: won without a winner", apperror.ErrMalformedSnapshot)
		}
		outcome = entity.WonBy(that.Winner)
	case entity.Draw:
		outcome = entity.Drawn()
	default:
		outcome = entity.Ongoing()
	}

	if kind != entity.Won && that.Winner != entity.Empty {
		return nil, fmt.Errorf("%w: winner %s on %s game", apperror.ErrMalformedSnapshot, that.Winner, kind)
	}

	var cells [entity.BoardSize]entity.Cell
	copy(cells[:], that.Board)

	game, err := entity.Restore(entity.BoardOf(cells), that.Turn, outcome)
	if err != nil {
		return nil, err
	}

	return &entity.Session{
		ID:      that.ID,
		Version: that.Version,
		Game:    *game,
	}, nil
}

func Encode(session *entity.Session) ([]byte, error) {
	data, err := json.Marshal(FromSession(session))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return data, nil
}

// Decode - parses a snapshot strictly and returns the session it carries.
// Every failure wraps apperror.ErrMalformedSnapshot.
func Decode(data []byte) (*entity.Session, error) {
	var snap Snapshot

	if err := decodeStrict(data, &snap); err != nil {
		return nil, err
	}

	if snap.ID == "" {
		return nil, fmt.Errorf("%w: missing id", apperror.ErrMalformedSnapshot)
	}

	return snap.Session()
}

func decodeStrict(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, apperror.ErrMalformedSnapshot) {
			return err
		}

		return fmt.Errorf("%w: %w", apperror.ErrMalformedSnapshot, err)
	}

	if decoder.More() {
		return fmt.Errorf("%w: trailing data", apperror.ErrMalformedSnapshot)
	}

	return nil
}
