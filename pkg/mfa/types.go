package mfa

import (
	"context"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/stepup"
)

// CodeType distinguishes the two credentials a challenge accepts.
type CodeType string

const (
	// CodeTypeTOTP is a 6-digit code from an authenticator app.
	CodeTypeTOTP CodeType = "totp"
	// CodeTypeRecovery is a single-use backup code in XXXX-XXXX form.
	CodeTypeRecovery CodeType = "recovery"
)

// Profile is a user's persisted second-factor state. One row per user,
// created implicitly on first enrollment.
//
// TOTPEnabled stays false between enrollment and confirmation. The secret is
// stored encrypted and only ever decrypted transiently inside a verify call.
// Recovery code hashes are consumed at most once each; the whole profile is
// always saved as a single atomic upsert so a code can never be consumed
// without the matching verification timestamp update.
type Profile struct {
	UserID             string
	TOTPEnabled        bool
	TOTPSecret         string // Encrypted at rest; opaque outside the cipher
	RecoveryCodeHashes []string
	LastVerifiedAt     time.Time // Zero until the first successful verification
	UpdatedAt          time.Time
}

// clone returns a deep copy so callers can mutate without aliasing store state.
func (p *Profile) clone() *Profile {
	cp := *p
	cp.RecoveryCodeHashes = append([]string(nil), p.RecoveryCodeHashes...)
	return &cp
}

// ProfileStore persists security profiles. Save must be an atomic upsert:
// partial writes (a recovery hash removed without the verification timestamp
// advancing) are not acceptable.
type ProfileStore interface {
	// Load returns the profile or ErrProfileNotFound.
	Load(ctx context.Context, userID string) (*Profile, error)

	// Save upserts the whole profile in one atomic operation.
	Save(ctx context.Context, profile *Profile) error
}

// MembershipResolver looks up the actor's tenant context. Implemented by the
// external membership system.
type MembershipResolver interface {
	ResolveRoleAndTenant(ctx context.Context, userID string) (role, tenantID string, err error)
}

// Enrollment is returned by Enroll: the plaintext secret for manual entry,
// the otpauth URI, and the same URI rendered as a PNG QR data URI.
type Enrollment struct {
	Secret          string
	ProvisioningURI string
	QRCodeDataURI   string
}

// Verification is returned by a successful challenge.
type Verification struct {
	VerifiedUntil time.Time
}

// PolicySource is re-exported so callers wire one store into both the
// service and the policy evaluator.
type PolicySource = stepup.PolicySource
