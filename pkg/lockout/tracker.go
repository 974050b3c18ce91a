package lockout

import (
	"context"
	"time"
)

// Tracker counts failed verification attempts per identity key and imposes a
// timed lockout once the budget is exhausted. State lives in the injected
// Store, so single-process deployments can use MemoryStore while
// multi-instance deployments share a RedisStore.
type Tracker struct {
	store Store
	cfg   Config
}

// New creates a Tracker over the given store and budget.
func New(store Store, cfg Config) (*Tracker, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Tracker{store: store, cfg: cfg}, nil
}

// Check spends one attempt against the key's budget.
//
// An active lockout rejects immediately. A missing entry, an expired window,
// or an expired lockout starts a fresh window at one attempt. Otherwise the
// counter is incremented; crossing the budget sets the lockout and rejects.
func (t *Tracker) Check(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	return t.store.Touch(ctx, key, t.cfg, time.Now())
}

// Reset clears the entry for the key. Called exactly once, on successful
// verification, so a legitimate user's next session starts with a full budget.
func (t *Tracker) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return t.store.Reset(ctx, key)
}
