package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/lockout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreWindowExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	cfg := lockout.Config{MaxAttempts: 2, Window: time.Minute, Lockout: 10 * time.Minute}
	base := time.Now()

	// Exhaust the window
	for range 2 {
		res, err := store.Touch(ctx, "k", cfg, base)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	// A touch after the window expired restarts at a full budget
	res, err := store.Touch(ctx, "k", cfg, base.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestMemoryStoreLockoutExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	cfg := lockout.Config{MaxAttempts: 1, Window: time.Minute, Lockout: 5 * time.Minute}
	base := time.Now()

	res, err := store.Touch(ctx, "k", cfg, base)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.Touch(ctx, "k", cfg, base.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, res.Locked)
	lockedUntil := res.LockedUntil

	// Still locked one second before expiry
	res, err = store.Touch(ctx, "k", cfg, lockedUntil.Add(-time.Second))
	require.NoError(t, err)
	assert.True(t, res.Locked)
	assert.False(t, res.Allowed)

	// A fresh window opens once the lockout has passed
	res, err = store.Touch(ctx, "k", cfg, lockedUntil.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.False(t, res.Locked)
	assert.Equal(t, 0, res.Remaining)
}

func TestMemoryStoreCleanupPreservesLiveWindow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(50 * time.Millisecond))
	t.Cleanup(store.Close)

	cfg := lockout.Config{MaxAttempts: 3, Window: time.Hour, Lockout: time.Hour}
	base := time.Now()

	for range 3 {
		res, err := store.Touch(ctx, "k", cfg, base)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	// Several cleanup passes run here. The window is still live, so the
	// entry must survive them and the budget must stay exhausted.
	time.Sleep(300 * time.Millisecond)

	res, err := store.Touch(ctx, "k", cfg, time.Now())
	require.NoError(t, err)
	assert.False(t, res.Allowed, "budget restarted mid-window")
	assert.True(t, res.Locked)
}

func TestMemoryStoreCleanupPreservesActiveLockout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(50 * time.Millisecond))
	t.Cleanup(store.Close)

	cfg := lockout.Config{MaxAttempts: 1, Window: time.Hour, Lockout: time.Hour}
	base := time.Now()

	_, err := store.Touch(ctx, "k", cfg, base)
	require.NoError(t, err)
	res, err := store.Touch(ctx, "k", cfg, base)
	require.NoError(t, err)
	require.True(t, res.Locked)

	time.Sleep(300 * time.Millisecond)

	res, err = store.Touch(ctx, "k", cfg, time.Now())
	require.NoError(t, err)
	assert.True(t, res.Locked)
	assert.False(t, res.Allowed)
}

func TestMemoryStoreAttemptsNeverExceedWithoutLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	cfg := lockout.Config{MaxAttempts: 3, Window: time.Minute, Lockout: time.Minute}
	base := time.Now()

	for i := range 10 {
		res, err := store.Touch(ctx, "k", cfg, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		if !res.Allowed {
			assert.True(t, res.Locked, "rejection without lockout on touch %d", i)
		}
	}
}
