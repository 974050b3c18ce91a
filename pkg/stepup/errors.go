package stepup

import "errors"

var (
	// ErrProfileNotFound is returned by a ProfileSource when the user has no
	// persisted security profile. The evaluator treats it as "never enrolled".
	ErrProfileNotFound = errors.New("security profile not found")

	// ErrPolicyNotFound is returned by a PolicySource when the tenant has no
	// policy row yet. The evaluator handles it by lazily creating the default.
	ErrPolicyNotFound = errors.New("tenant security policy not found")

	// ErrPolicyResolution wraps storage failures encountered while resolving
	// a policy or profile. It is always surfaced, never swallowed into
	// "allowed".
	ErrPolicyResolution = errors.New("failed to resolve step-up policy")

	ErrProfileSourceRequired = errors.New("profile source is required")
	ErrPolicySourceRequired  = errors.New("policy source is required")
	ErrActorRequired         = errors.New("actor user id is required")
)
