package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

// runSessionRepositoryContract checks the behaviour every SessionRepository must share.
func runSessionRepositoryContract(t *testing.T, ctx context.Context, newRepo func(t *testing.T) SessionRepository) {
	t.Helper()

	t.Run("Create_then_GetByID", func(t *testing.T) {
		repo := newRepo(t)

		// Given: a session with one move
		session := entity.NewSession("123")
		require.NoError(t, session.ApplyMove(entity.Center))

		// When: it is created and read back
		require.NoError(t, repo.Create(ctx, session))
		retrieved, err := repo.GetByID(ctx, "123")

		// Then: the stored session matches
		require.NoError(t, err)
		assert.Equal(t, session, retrieved)
	})

	t.Run("Create_twice_conflicts", func(t *testing.T) {
		repo := newRepo(t)

		require.NoError(t, repo.Create(ctx, entity.NewSession("123")))

		err := repo.Create(ctx, entity.NewSession("123"))
		require.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		repo := newRepo(t)

		// When: GetByID is called with non-existent ID
		_, err := repo.GetByID(ctx, "9999999")

		// Then: ErrSessionNotFound is returned
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Update_applies_and_persists", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entity.NewSession("123")))

		// When: a move is applied through Update
		updated, err := repo.Update(ctx, "123", func(session *entity.Session) error {
			return session.ApplyMove(entity.TopLeft)
		})

		// Then: the returned and stored sessions carry the move
		require.NoError(t, err)
		assert.Equal(t, entity.X, updated.Game.Board().Get(entity.TopLeft))
		assert.Equal(t, uint64(1), updated.Version)

		stored, err := repo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
	})

	t.Run("Update_error_discards_change", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entity.NewSession("123")))

		errRejected := errors.New("rejected")

		// When: fn mutates and then fails
		_, err := repo.Update(ctx, "123", func(session *entity.Session) error {
			_ = session.ApplyMove(entity.TopLeft)
			return errRejected
		})

		// Then: the error is returned unchanged and nothing is stored
		require.ErrorIs(t, err, errRejected)

		stored, err := repo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, entity.NewSession("123"), stored)
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Update(ctx, "nope", func(*entity.Session) error { return nil })
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Concurrent_updates_of_one_cell_apply_once", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entity.NewSession("123")))

		const writers = 4

		var wg sync.WaitGroup
		errs := make([]error, writers)

		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.Update(ctx, "123", func(session *entity.Session) error {
					return session.ApplyMove(entity.Center)
				})
			}(i)
		}
		wg.Wait()

		// Then: exactly one writer wins, the rest see the occupied cell
		accepted := 0
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			require.ErrorIs(t, err, apperror.ErrCellOccupied)
		}
		assert.Equal(t, 1, accepted)

		stored, err := repo.GetByID(ctx, "123")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), stored.Version)
		assert.Equal(t, entity.O, stored.Game.Turn())
	})

	t.Run("DeleteByID", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, entity.NewSession("123")))

		// When: DeleteByID is called with existing ID
		require.NoError(t, repo.DeleteByID(ctx, "123"))

		// Then: the session is gone and a second delete reports it
		_, err := repo.GetByID(ctx, "123")
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		require.ErrorIs(t, repo.DeleteByID(ctx, "123"), apperror.ErrSessionNotFound)
	})
}
