package stepup

import (
	"context"
	"time"
)

// Decision is the transient outcome of a step-up evaluation. It is never
// persisted; only its inputs are.
type Decision string

const (
	// DecisionAllowed means the action may proceed without a new challenge.
	DecisionAllowed Decision = "allowed"
	// DecisionEnrollmentRequired means the actor has no confirmed second
	// factor and must enroll before the action can proceed.
	DecisionEnrollmentRequired Decision = "enrollment_required"
	// DecisionChallengeRequired means the last verification is stale or
	// absent and a fresh code must be submitted.
	DecisionChallengeRequired Decision = "challenge_required"
)

const (
	// SuperAdminWindow is the fixed freshness window for super-admins.
	// Tenant policy can never widen it.
	SuperAdminWindow = 5 * time.Minute

	// MinStepUpWindow is the smallest permitted tenant window: one TOTP period.
	MinStepUpWindow = 30 * time.Second

	// DefaultStepUpWindow is how long a verification remains valid under a
	// freshly created tenant policy.
	DefaultStepUpWindow = 5 * time.Minute
)

// Actor identifies who is requesting a gated action.
type Actor struct {
	UserID       string
	Role         string
	IsSuperAdmin bool
}

// Profile is the evaluator's read view of a user's security profile.
// A zero Profile represents a user who never enrolled.
type Profile struct {
	TOTPEnabled    bool
	LastVerifiedAt time.Time // Zero when the user has never verified
}

// Policy is a tenant's step-up security policy.
type Policy struct {
	// RequireMFAForRole maps role names (owner, admin, manager, finance,
	// developer, ...) to whether gated actions demand a fresh verification.
	RequireMFAForRole map[string]bool

	// StepUpWindow is how long a verification remains valid before gated
	// actions require a new challenge.
	StepUpWindow time.Duration
}

// DefaultPolicy returns the policy created lazily for tenants without one:
// MFA required for owner and admin, five-minute window.
func DefaultPolicy() Policy {
	return Policy{
		RequireMFAForRole: map[string]bool{
			"owner": true,
			"admin": true,
		},
		StepUpWindow: DefaultStepUpWindow,
	}
}

// Window returns the effective step-up window, clamping anything below one
// TOTP period back to the default.
func (p Policy) Window() time.Duration {
	if p.StepUpWindow < MinStepUpWindow {
		return DefaultStepUpWindow
	}
	return p.StepUpWindow
}

// ProfileSource loads security profiles for evaluation.
type ProfileSource interface {
	// Profile returns the user's security profile, or ErrProfileNotFound if
	// the user never enrolled.
	Profile(ctx context.Context, userID string) (*Profile, error)
}

// PolicySource loads and lazily creates tenant policies.
type PolicySource interface {
	// Policy returns the tenant's policy, or ErrPolicyNotFound if none exists.
	Policy(ctx context.Context, tenantID string) (*Policy, error)

	// CreateDefault persists the default policy for the tenant. Returns the
	// created policy; must be idempotent when two evaluations race.
	CreateDefault(ctx context.Context, tenantID string) (*Policy, error)
}
