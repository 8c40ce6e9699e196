package pkg

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionID(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 100; i++ {
		id, err := GenerateSessionID()
		require.NoError(t, err)

		// Then: ids are unique and safe to use as a path segment
		assert.False(t, seen[id])
		assert.Equal(t, id, url.PathEscape(id))
		seen[id] = true
	}
}
