package render

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

func play(t *testing.T, offsets ...int) *entity.Game {
	t.Helper()

	game := entity.NewGame()
	for _, offset := range offsets {
		require.NoError(t, game.ApplyMove(entity.MustCellIndex(offset)))
	}

	return game
}

func TestRenderer_Board(t *testing.T) {
	renderer := NewWithProfile(&bytes.Buffer{}, termenv.Ascii)

	t.Run("Empty board shows the keys", func(t *testing.T) {
		expected := "" +
			" 1 | 2 | 3 \n" +
			"---+---+---\n" +
			" 4 | 5 | 6 \n" +
			"---+---+---\n" +
			" 7 | 8 | 9 \n"

		assert.Equal(t, expected, renderer.Board(entity.NewGame()))
	})

	t.Run("Marks replace keys", func(t *testing.T) {
		expected := "" +
			" X | 2 | 3 \n" +
			"---+---+---\n" +
			" 4 | O | 6 \n" +
			"---+---+---\n" +
			" 7 | 8 | X \n"

		assert.Equal(t, expected, renderer.Board(play(t, 0, 4, 8)))
	})
}

func TestRenderer_Colours(t *testing.T) {
	renderer := NewWithProfile(&bytes.Buffer{}, termenv.ANSI)

	board := renderer.Board(play(t, 0, 4, 1, 5, 2))

	// escape sequences wrap the marks, keys stay readable
	assert.Contains(t, board, "\x1b[")
	assert.Contains(t, board, "9")
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    string
	}{
		{"Fresh game", nil, "X to move"},
		{"After one move", []int{4}, "O to move"},
		{"Top row win", []int{0, 4, 1, 5, 2}, "X wins"},
		{"Full board draw", []int{0, 1, 2, 4, 3, 5, 7, 6, 8}, "Draw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(play(t, tt.offsets...)))
		})
	}
}

func TestRenderer_Print(t *testing.T) {
	var out bytes.Buffer
	renderer := NewWithProfile(&out, termenv.Ascii)

	require.NoError(t, renderer.Print(&out, entity.NewGame(), "session abc"))

	assert.Contains(t, out.String(), " 7 | 8 | 9 \nX to move\nsession abc\n")
}

func TestIndexForKey(t *testing.T) {
	index, ok := IndexForKey('1')
	require.True(t, ok)
	assert.Equal(t, entity.TopLeft, index)

	index, ok = IndexForKey('9')
	require.True(t, ok)
	assert.Equal(t, entity.BottomRight, index)

	for _, key := range []rune{'0', 'a', ' ', '-'} {
		_, ok = IndexForKey(key)
		assert.False(t, ok, "key %q", key)
	}

	assert.Equal(t, "5", KeyFor(entity.Center))
}
