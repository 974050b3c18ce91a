package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/lockout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))

	tests := []struct {
		name    string
		store   lockout.Store
		cfg     lockout.Config
		wantErr error
	}{
		{name: "valid", store: store, cfg: lockout.ChallengeDefaults()},
		{name: "nil store", store: nil, cfg: lockout.ChallengeDefaults(), wantErr: lockout.ErrStoreRequired},
		{name: "zero attempts", store: store, cfg: lockout.Config{Window: time.Minute, Lockout: time.Minute}, wantErr: lockout.ErrInvalidMaxAttempts},
		{name: "zero window", store: store, cfg: lockout.Config{MaxAttempts: 5, Lockout: time.Minute}, wantErr: lockout.ErrInvalidWindow},
		{name: "zero lockout", store: store, cfg: lockout.Config{MaxAttempts: 5, Window: time.Minute}, wantErr: lockout.ErrInvalidLockout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tracker, err := lockout.New(tt.store, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tracker)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, tracker)
		})
	}
}

func TestCheckBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	tracker, err := lockout.New(store, lockout.Config{
		MaxAttempts: 5,
		Window:      time.Minute,
		Lockout:     15 * time.Minute,
	})
	require.NoError(t, err)

	// First five attempts within the window are allowed with a shrinking budget
	for i := 1; i <= 5; i++ {
		res, err := tracker.Check(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "attempt %d", i)
		assert.False(t, res.Locked)
		assert.Equal(t, 5-i, res.Remaining)
	}

	// Sixth attempt crosses the budget and locks
	res, err := tracker.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.True(t, res.Locked)
	assert.False(t, res.LockedUntil.IsZero())
	assert.Equal(t, res.LockedUntil, res.ResetAt)
	assert.InDelta(t, 15*time.Minute, time.Until(res.LockedUntil), float64(time.Second))

	lockedUntil := res.LockedUntil

	// Seventh attempt is still rejected and the lockout does not extend
	res, err = tracker.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.True(t, res.Locked)
	assert.Equal(t, lockedUntil, res.LockedUntil)
	assert.Positive(t, res.RetryAfter())
}

func TestCheckIndependentKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	tracker, err := lockout.New(store, lockout.Config{MaxAttempts: 1, Window: time.Minute, Lockout: time.Minute})
	require.NoError(t, err)

	res, err := tracker.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = tracker.Check(ctx, "user-a")
	require.NoError(t, err)
	assert.True(t, res.Locked)

	// Another key keeps its full budget
	res, err = tracker.Check(ctx, "user-b")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	tracker, err := lockout.New(store, lockout.Config{MaxAttempts: 2, Window: time.Minute, Lockout: time.Minute})
	require.NoError(t, err)

	_, err = tracker.Check(ctx, "user-1")
	require.NoError(t, err)
	res, err := tracker.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining)

	require.NoError(t, tracker.Reset(ctx, "user-1"))

	res, err = tracker.Check(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestCheckEmptyKey(t *testing.T) {
	t.Parallel()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	tracker, err := lockout.New(store, lockout.ChallengeDefaults())
	require.NoError(t, err)

	_, err = tracker.Check(context.Background(), "")
	assert.ErrorIs(t, err, lockout.ErrKeyRequired)
	assert.ErrorIs(t, tracker.Reset(context.Background(), ""), lockout.ErrKeyRequired)
}
