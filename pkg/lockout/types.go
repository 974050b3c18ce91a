package lockout

import (
	"context"
	"time"
)

// Config defines a failure budget and the penalty for exhausting it.
type Config struct {
	MaxAttempts int           // Attempts allowed inside one window
	Window      time.Duration // Sliding window the attempts are counted in
	Lockout     time.Duration // Hard rejection period after the budget is exhausted
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.Window <= 0 {
		return ErrInvalidWindow
	}
	if c.Lockout <= 0 {
		return ErrInvalidLockout
	}
	return nil
}

// ChallengeDefaults is the budget for MFA challenge attempts: five tries per
// minute, then a fifteen-minute lockout.
func ChallengeDefaults() Config {
	return Config{MaxAttempts: 5, Window: time.Minute, Lockout: 15 * time.Minute}
}

// EnrollmentDefaults is the looser budget for enrollment and recovery-code
// regeneration endpoints.
func EnrollmentDefaults() Config {
	return Config{MaxAttempts: 10, Window: time.Hour, Lockout: time.Hour}
}

// Result reports the outcome of a single attempt check.
type Result struct {
	Allowed     bool      // Whether the attempt may proceed
	Remaining   int       // Attempts left in the current window
	ResetAt     time.Time // When the window or lockout ends
	Locked      bool      // Whether a lockout is active
	LockedUntil time.Time // End of the active lockout; zero when not locked
}

// RetryAfter returns how long the caller must wait before the next attempt.
// Returns 0 if the attempt was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Entry is the per-key state tracked between attempts.
type Entry struct {
	Attempts    int
	WindowStart time.Time
	LockedUntil time.Time // Zero when no lockout has been imposed
	ExpiresAt   time.Time // Eviction deadline: window end, or lockout end once locked
}

// Store persists lockout entries. Touch must run the whole count-or-lock
// transition atomically per key: two concurrent attempts must never both
// observe attempts below the limit and both slip past it.
type Store interface {
	// Touch applies one attempt against the key's budget and returns the
	// resulting decision.
	Touch(ctx context.Context, key string, cfg Config, now time.Time) (*Result, error)

	// Reset clears the entry for the key.
	Reset(ctx context.Context, key string) error
}
