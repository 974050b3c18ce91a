// Package audit records immutable events for every security-state change in
// the MFA subsystem: enrollment, confirmation, challenges, disable, and
// recovery-code regeneration.
//
// The Logger contract is best-effort by design. A failed audit write is
// reported through slog and swallowed so it can never fail the operation
// being audited; a failure to persist the primary security-state change, by
// contrast, always aborts the operation at the call site.
//
// Events carry at minimum the actor id, operation name, and outcome, plus
// the coarse client network origin and tenant scope when the configured
// context extractors find them. Storage is pluggable: MemoryStorage serves
// tests, MongoStorage appends to a MongoDB collection.
package audit
