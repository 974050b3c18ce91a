package stepup

import (
	"context"
	"errors"
	"time"
)

// Evaluator decides, per gated action, whether an actor may proceed, must
// enroll a second factor, or must pass a fresh challenge. It is evaluated
// fresh on every call and holds no per-actor state.
type Evaluator struct {
	profiles ProfileSource
	policies PolicySource
	now      func() time.Time
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEvaluator creates an Evaluator over the given sources.
func NewEvaluator(profiles ProfileSource, policies PolicySource, opts ...EvaluatorOption) (*Evaluator, error) {
	if profiles == nil {
		return nil, ErrProfileSourceRequired
	}
	if policies == nil {
		return nil, ErrPolicySourceRequired
	}

	e := &Evaluator{
		profiles: profiles,
		policies: policies,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Evaluate runs the decision algorithm for one gated action.
//
// Super-admin status is evaluated before role-based tenant policy and
// overrides it: a super-admin can never downgrade their requirement by also
// holding a lenient tenant role. An empty tenantID marks a non-gated action
// for ordinary members.
//
// Storage failures fail closed for super-admins: the returned decision is
// DecisionChallengeRequired alongside the error, so a caller that ignores
// the error still denies. For ordinary members any failure other than the
// lazily-handled missing-policy case propagates as a hard error.
func (e *Evaluator) Evaluate(ctx context.Context, actor Actor, tenantID string) (Decision, error) {
	if actor.UserID == "" {
		return DecisionChallengeRequired, ErrActorRequired
	}

	profile, err := e.loadProfile(ctx, actor.UserID)
	if err != nil {
		if actor.IsSuperAdmin {
			return DecisionChallengeRequired, errors.Join(ErrPolicyResolution, err)
		}
		return "", errors.Join(ErrPolicyResolution, err)
	}

	// Super-admins carry a mandatory fixed-window requirement regardless of
	// any tenant policy.
	if actor.IsSuperAdmin {
		if !profile.TOTPEnabled {
			return DecisionEnrollmentRequired, nil
		}
		if e.stale(profile.LastVerifiedAt, SuperAdminWindow) {
			return DecisionChallengeRequired, nil
		}
		return DecisionAllowed, nil
	}

	// Non-gated action: no tenant context applies.
	if tenantID == "" {
		return DecisionAllowed, nil
	}

	policy, err := e.policies.Policy(ctx, tenantID)
	switch {
	case errors.Is(err, ErrPolicyNotFound):
		// Lazily create the default and allow this one call; the created
		// policy governs subsequent evaluations. A hard failure on first use
		// of a new tenant would be worse than one ungated call.
		if _, err := e.policies.CreateDefault(ctx, tenantID); err != nil {
			return "", errors.Join(ErrPolicyResolution, err)
		}
		return DecisionAllowed, nil
	case err != nil:
		return "", errors.Join(ErrPolicyResolution, err)
	}

	if !policy.RequireMFAForRole[actor.Role] {
		return DecisionAllowed, nil
	}

	if !profile.TOTPEnabled {
		return DecisionEnrollmentRequired, nil
	}
	if e.stale(profile.LastVerifiedAt, policy.Window()) {
		return DecisionChallengeRequired, nil
	}
	return DecisionAllowed, nil
}

// loadProfile treats a missing profile as "never enrolled" rather than an
// error; only real storage failures propagate.
func (e *Evaluator) loadProfile(ctx context.Context, userID string) (*Profile, error) {
	profile, err := e.profiles.Profile(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return &Profile{}, nil
	}
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &Profile{}, nil
	}
	return profile, nil
}

// stale reports whether the last verification is older than the window.
// A zero timestamp means the user never verified, i.e. infinitely stale.
func (e *Evaluator) stale(lastVerifiedAt time.Time, window time.Duration) bool {
	if lastVerifiedAt.IsZero() {
		return true
	}
	return e.now().Sub(lastVerifiedAt) > window
}
