package entity

// Session is the authority's copy of one game. Version grows with every accepted move and every reset,
// so a holder of two snapshots can tell which one is newer.
type Session struct {
	ID      string
	Version uint64
	Game    Game
}

func NewSession(id string) *Session {
	return &Session{
		ID:   id,
		Game: *NewGame(),
	}
}

func (that *Session) ApplyMove(index CellIndex) error {
	if err := that.Game.ApplyMove(index); err != nil {
		return err
	}

	that.Version++

	return nil
}

func (that *Session) Reset() {
	that.Game.Reset()
	that.Version++
}

// NewerThan reports whether this session state supersedes other.
func (that *Session) NewerThan(other *Session) bool {
	return other == nil || that.ID != other.ID || that.Version > other.Version
}
