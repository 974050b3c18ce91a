// Package lockout tracks verification attempts per identity key inside a
// time window and imposes a timed lockout after too many failures.
//
// A Tracker spends one attempt per Check call: an active lockout rejects
// immediately, a fresh or expired window restarts the counter, and crossing
// the configured budget sets LockedUntil and rejects every attempt until it
// passes. Reset clears the entry and is meant to be called exactly once, on
// successful verification.
//
// State lives behind the Store interface. MemoryStore keeps entries in a
// process-local map (counters reset on restart, an accepted trade-off);
// RedisStore shares the budget across processes using a Lua script for
// per-key atomicity. Both guarantee that two concurrent attempts can never
// both observe a counter below the limit and both slip past it.
//
// Recommended budgets are provided as ChallengeDefaults (5 attempts per
// minute, 15-minute lockout) and EnrollmentDefaults (10 per hour).
package lockout
