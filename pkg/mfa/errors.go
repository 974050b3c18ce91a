package mfa

import (
	"errors"
	"fmt"
	"time"
)

// Machine-readable error codes surfaced to transport adapters.
const (
	CodeEnrollRequired    = "MFA_ENROLL_REQUIRED"
	CodeChallengeRequired = "MFA_CHALLENGE_REQUIRED"
	CodeInvalidCode       = "MFA_INVALID_CODE"
	CodeLocked            = "MFA_LOCKED"
	CodeNotEnrolled       = "MFA_NOT_ENROLLED"
	CodeAlreadyEnrolled   = "MFA_ALREADY_ENROLLED"
	CodeMalformedCode     = "MFA_MALFORMED_CODE"
)

var (
	// ErrEnrollRequired means the actor must enroll a second factor before
	// the gated action can proceed.
	ErrEnrollRequired = errors.New("MFA enrollment required")

	// ErrChallengeRequired means the last verification is stale and a fresh
	// code must be submitted.
	ErrChallengeRequired = errors.New("fresh MFA verification required")

	// ErrInvalidCode means the submitted code or recovery entry did not
	// match. It deliberately does not say why, to avoid oracle attacks.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrLocked is the base error carried by LockedError.
	ErrLocked = errors.New("too many attempts")

	// ErrNotEnrolled means the operation needs an active enrollment and the
	// user has none.
	ErrNotEnrolled = errors.New("two-factor authentication is not enabled")

	// ErrAlreadyEnrolled means enrollment was attempted over a confirmed
	// second factor; it must be disabled first.
	ErrAlreadyEnrolled = errors.New("two-factor authentication is already enabled")

	// ErrMalformedCode means the submitted code has the wrong shape: not six
	// digits, and not a hyphenated recovery code.
	ErrMalformedCode = errors.New("malformed verification code")

	ErrProfileNotFound = errors.New("security profile not found")

	ErrProfileStoreRequired = errors.New("profile store is required")
	ErrPolicyStoreRequired  = errors.New("policy store is required")
	ErrCipherRequired       = errors.New("secret cipher is required")
	ErrUserIDRequired       = errors.New("user id is required")
)

// LockedError reports an active lockout together with when it ends.
type LockedError struct {
	LockedUntil time.Time
}

func (e *LockedError) Error() string {
	remaining := time.Until(e.LockedUntil).Round(time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("too many attempts, try again in %s", remaining)
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}

// ErrorCode maps an error returned by this package to its machine-readable
// code. Returns "" for errors outside the closed set.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrEnrollRequired):
		return CodeEnrollRequired
	case errors.Is(err, ErrChallengeRequired):
		return CodeChallengeRequired
	case errors.Is(err, ErrInvalidCode):
		return CodeInvalidCode
	case errors.Is(err, ErrLocked):
		return CodeLocked
	case errors.Is(err, ErrNotEnrolled):
		return CodeNotEnrolled
	case errors.Is(err, ErrAlreadyEnrolled):
		return CodeAlreadyEnrolled
	case errors.Is(err, ErrMalformedCode):
		return CodeMalformedCode
	default:
		return ""
	}
}
