package lockout_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/lockout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two concurrent attempts must never both read a counter below the limit and
// both slip past it: the number of allowed attempts is exactly MaxAttempts.
func TestConcurrentChecksRespectBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	const maxAttempts = 5
	tracker, err := lockout.New(store, lockout.Config{
		MaxAttempts: maxAttempts,
		Window:      time.Minute,
		Lockout:     time.Minute,
	})
	require.NoError(t, err)

	const goroutines = 50
	var allowed atomic.Int64
	var wg sync.WaitGroup

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := tracker.Check(ctx, "contended-key")
			if assert.NoError(t, err) && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(maxAttempts), allowed.Load())
}

func TestConcurrentDistinctKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := lockout.NewMemoryStore(lockout.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	tracker, err := lockout.New(store, lockout.ChallengeDefaults())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := lockout.Key("mfa-challenge", string(rune('a'+n)))
			res, err := tracker.Check(ctx, key)
			assert.NoError(t, err)
			assert.True(t, res.Allowed)
		}(i)
	}
	wg.Wait()
}
