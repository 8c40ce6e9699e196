package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-session/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-session/internal/entity"
)

const eventually = 5 * time.Second

// fakeAuthority answers from a single in-memory session; gate, when set, holds every proposal until it is closed.
type fakeAuthority struct {
	session   *entity.Session
	fetchErr  atomic.Pointer[error]
	fetches   atomic.Int32
	proposals atomic.Int32
	gate      chan struct{}
}

func newFakeAuthority() *fakeAuthority {
	return &fakeAuthority{session: entity.NewSession("s1")}
}

func (that *fakeAuthority) failFetches(err error) {
	if err == nil {
		that.fetchErr.Store(nil)
		return
	}

	that.fetchErr.Store(&err)
}

func (that *fakeAuthority) Fetch(ctx context.Context, _ string) (*entity.Session, error) {
	that.fetches.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := that.fetchErr.Load(); err != nil {
		return nil, *err
	}

	copied := *that.session

	return &copied, nil
}

func (that *fakeAuthority) Propose(ctx context.Context, _ string, index entity.CellIndex) (*entity.Session, error) {
	that.proposals.Add(1)

	if that.gate != nil {
		select {
		case <-that.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := that.session.ApplyMove(index); err != nil {
		copied := *that.session
		return &copied, err
	}

	copied := *that.session

	return &copied, nil
}

func (that *fakeAuthority) Reset(_ context.Context, _ string) (*entity.Session, error) {
	that.session.Reset()

	copied := *that.session

	return &copied, nil
}

func fastRetry() backoff.BackOff {
	return backoff.NewConstantBackOff(5 * time.Millisecond)
}

func TestSession_Refresh(t *testing.T) {
	ctx := context.Background()
	authority := newFakeAuthority()
	mirror := NewSession(discardLogger(), authority, "s1")

	// Given: nothing fetched yet
	assert.Nil(t, mirror.Snapshot())

	// When: a refresh succeeds
	require.NoError(t, mirror.Refresh(ctx))

	// Then: the mirror shows the authority's state
	first := mirror.Snapshot()
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Version)

	// When: the next refresh fails
	authority.failFetches(apperror.ErrTransport)
	err := mirror.Refresh(ctx)

	// Then: the error is reported and the last snapshot stays
	require.ErrorIs(t, err, apperror.ErrTransport)
	assert.Equal(t, first, mirror.Snapshot())
	require.ErrorIs(t, mirror.Err(), apperror.ErrTransport)

	// When: the authority recovers
	authority.failFetches(nil)
	require.NoError(t, mirror.Refresh(ctx))

	// Then: the error clears
	assert.NoError(t, mirror.Err())
}

func TestSession_Propose(t *testing.T) {
	ctx := context.Background()

	t.Run("No optimistic change while in flight", func(t *testing.T) {
		authority := newFakeAuthority()
		authority.gate = make(chan struct{})
		mirror := NewSession(discardLogger(), authority, "s1")
		require.NoError(t, mirror.Refresh(ctx))

		// Given: a proposal held by the authority
		result := make(chan error, 1)
		go func() { result <- mirror.Propose(ctx, entity.Center) }()

		require.Eventually(t, mirror.InFlight, eventually, time.Millisecond)

		// When: a second proposal is attempted
		err := mirror.Propose(ctx, entity.TopLeft)

		// Then: it is refused locally and the mirror still shows the empty board
		require.ErrorIs(t, err, apperror.ErrProposalInFlight)
		assert.Equal(t, int32(1), authority.proposals.Load())
		assert.Equal(t, entity.Empty, mirror.Snapshot().Game.Board().Get(entity.Center))

		// When: the authority answers
		close(authority.gate)

		// Then: the accepted state is adopted and the slot frees up
		require.NoError(t, <-result)
		assert.Equal(t, entity.X, mirror.Snapshot().Game.Board().Get(entity.Center))
		assert.False(t, mirror.InFlight())
	})

	t.Run("Rejection adopts the authority's state", func(t *testing.T) {
		authority := newFakeAuthority()
		require.NoError(t, authority.session.ApplyMove(entity.Center))

		// Given: a mirror that has not seen the move yet
		mirror := NewSession(discardLogger(), authority, "s1")

		// When: it proposes the occupied cell
		err := mirror.Propose(ctx, entity.Center)

		// Then: the rejection is returned and the mirror catches up
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, uint64(1), mirror.Snapshot().Version)
	})

	t.Run("Canceled proposal is abandoned", func(t *testing.T) {
		authority := newFakeAuthority()
		authority.gate = make(chan struct{})
		mirror := NewSession(discardLogger(), authority, "s1")
		require.NoError(t, mirror.Refresh(ctx))

		callCtx, cancel := context.WithCancel(ctx)
		result := make(chan error, 1)
		go func() { result <- mirror.Propose(callCtx, entity.Center) }()

		require.Eventually(t, mirror.InFlight, eventually, time.Millisecond)

		cancel()

		require.ErrorIs(t, <-result, context.Canceled)
		assert.Equal(t, uint64(0), mirror.Snapshot().Version)
		assert.False(t, mirror.InFlight())
	})

	t.Run("Close discards late answers", func(t *testing.T) {
		authority := newFakeAuthority()
		authority.gate = make(chan struct{})
		mirror := NewSession(discardLogger(), authority, "s1")
		require.NoError(t, mirror.Refresh(ctx))

		result := make(chan error, 1)
		go func() { result <- mirror.Propose(ctx, entity.Center) }()

		require.Eventually(t, mirror.InFlight, eventually, time.Millisecond)

		// When: the mirror is closed before the answer
		mirror.Close()

		// Then: the call ends and its outcome is never shown
		require.ErrorIs(t, <-result, apperror.ErrClientClosed)
		assert.Equal(t, uint64(0), mirror.Snapshot().Version)
		require.ErrorIs(t, mirror.Propose(ctx, entity.TopLeft), apperror.ErrClientClosed)
		require.ErrorIs(t, mirror.Refresh(ctx), apperror.ErrClientClosed)
	})
}

func TestSession_Reset(t *testing.T) {
	ctx := context.Background()
	authority := newFakeAuthority()
	mirror := NewSession(discardLogger(), authority, "s1")

	require.NoError(t, mirror.Propose(ctx, entity.TopLeft))
	require.NoError(t, mirror.Reset(ctx))

	snap := mirror.Snapshot()
	assert.Equal(t, uint64(2), snap.Version)
	assert.Equal(t, *entity.NewGame(), snap.Game)
}

func TestSession_DropsStaleStates(t *testing.T) {
	mirror := NewSession(discardLogger(), newFakeAuthority(), "s1")

	newer := entity.NewSession("s1")
	require.NoError(t, newer.ApplyMove(entity.Center))
	require.NoError(t, newer.ApplyMove(entity.TopLeft))

	older := entity.NewSession("s1")
	require.NoError(t, older.ApplyMove(entity.Center))

	mirror.adopt(newer)
	mirror.adopt(older)

	assert.Equal(t, uint64(2), mirror.Snapshot().Version)
}

func TestSession_Run(t *testing.T) {
	authority := newFakeAuthority()
	mirror := NewSession(discardLogger(), authority, "s1",
		WithPollInterval(10*time.Millisecond),
		WithBackOff(fastRetry),
	)

	// Given: an authority that is down at first
	authority.failFetches(errors.Join(apperror.ErrTransport, errors.New("connection refused")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- mirror.Run(ctx) }()

	// Then: polling keeps retrying
	require.Eventually(t, func() bool { return authority.fetches.Load() >= 3 }, eventually, time.Millisecond)
	assert.Nil(t, mirror.Snapshot())

	// When: it comes back
	authority.failFetches(nil)

	// Then: the mirror fills in
	require.Eventually(t, func() bool { return mirror.Snapshot() != nil }, eventually, time.Millisecond)

	// When: the caller leaves
	cancel()

	// Then: Run returns the cancellation
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSession_RunStopsOnClose(t *testing.T) {
	mirror := NewSession(discardLogger(), newFakeAuthority(), "s1", WithPollInterval(time.Hour))

	done := make(chan error, 1)
	go func() { done <- mirror.Run(context.Background()) }()

	require.Eventually(t, func() bool { return mirror.Snapshot() != nil }, eventually, time.Millisecond)

	mirror.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(eventually):
		t.Fatal("Run did not stop after Close")
	}
}

func TestSession_FollowsPushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := newAuthorityServer(t)
	api := NewAPI(server.httpURL, nil)

	created, err := api.Create(ctx)
	require.NoError(t, err)

	follow := WebsocketFollower(discardLogger(), server.socketURL, created.ID)
	connected := make(chan struct{})
	var once sync.Once

	// Given: a mirror that polls rarely but follows the websocket
	mirror := NewSession(discardLogger(), api, created.ID,
		WithPollInterval(time.Hour),
		WithFollower(func(ctx context.Context) (<-chan *entity.Session, error) {
			updates, err := follow(ctx)
			if err == nil {
				once.Do(func() { close(connected) })
			}
			return updates, err
		}),
		WithBackOff(fastRetry),
	)
	go func() { _ = mirror.Run(ctx) }()

	select {
	case <-connected:
	case <-time.After(eventually):
		t.Fatal("follower never connected")
	}

	// When: another participant moves
	_, err = server.manager.ProposeMove(ctx, created.ID, 8)
	require.NoError(t, err)

	// Then: the push brings the mirror up to date
	require.Eventually(t, func() bool {
		snap := mirror.Snapshot()
		return snap.Version == 1 && snap.Game.Board().Get(entity.BottomRight) == entity.X
	}, eventually, 5*time.Millisecond)
}
