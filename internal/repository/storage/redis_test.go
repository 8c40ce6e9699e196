package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-session/testing/suite"
)

func TestNewRedisStorage(t *testing.T) {
	t.Run("Connects to a running redis", func(t *testing.T) {
		ctx, st := suite.New(t)

		conn, err := NewRedisStorage(ctx, st.Storage.Options().Addr)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	})

	t.Run("Fails when nothing listens", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		_, err := NewRedisStorage(ctx, "127.0.0.1:1")
		require.Error(t, err)
	})
}
