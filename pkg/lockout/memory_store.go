package lockout

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with a process-local map. Entries are
// ephemeral: a restart resets abuse counters, which is an accepted trade-off
// for single-process deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often stale entries are evicted.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates a new in-memory store with background cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		entries:         make(map[string]*Entry),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanupLoop()
	}

	return ms
}

// Touch applies one attempt under the store mutex, which gives the required
// per-key atomicity: concurrent attempts serialize here.
func (ms *MemoryStore) Touch(ctx context.Context, key string, cfg Config, now time.Time) (*Result, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	e, exists := ms.entries[key]

	// Active lockout rejects regardless of the counter
	if exists && e.LockedUntil.After(now) {
		return &Result{
			Remaining:   0,
			ResetAt:     e.LockedUntil,
			Locked:      true,
			LockedUntil: e.LockedUntil,
		}, nil
	}

	// Fresh window: no entry, expired window, or just-expired lockout
	if !exists || now.Sub(e.WindowStart) > cfg.Window || !e.LockedUntil.IsZero() {
		e = &Entry{Attempts: 1, WindowStart: now, ExpiresAt: now.Add(cfg.Window)}
		ms.entries[key] = e
		return &Result{
			Allowed:   true,
			Remaining: cfg.MaxAttempts - 1,
			ResetAt:   now.Add(cfg.Window),
		}, nil
	}

	e.Attempts++
	if e.Attempts > cfg.MaxAttempts {
		e.LockedUntil = now.Add(cfg.Lockout)
		e.ExpiresAt = e.LockedUntil
		return &Result{
			Remaining:   0,
			ResetAt:     e.LockedUntil,
			Locked:      true,
			LockedUntil: e.LockedUntil,
		}, nil
	}

	return &Result{
		Allowed:   true,
		Remaining: cfg.MaxAttempts - e.Attempts,
		ResetAt:   e.WindowStart.Add(cfg.Window),
	}, nil
}

// Reset clears the entry for the key.
func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.entries, key)
	return nil
}

// Close stops the background cleanup goroutine.
func (ms *MemoryStore) Close() {
	ms.cleanupOnce.Do(func() {
		close(ms.stopCleanup)
	})
}

func (ms *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale()
		case <-ms.stopCleanup:
			return
		}
	}
}

// removeStale evicts entries whose recorded deadline has passed. The
// deadline is set at Touch time from the key's own window or lockout, so a
// live window is never evicted regardless of the cleanup interval.
func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, e := range ms.entries {
		if now.After(e.ExpiresAt) {
			delete(ms.entries, key)
		}
	}
}
