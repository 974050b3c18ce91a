package mfa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/stepupkit/pkg/stepup"
)

// PGProfileStore persists security profiles in Postgres. Save is a single
// INSERT ... ON CONFLICT statement, so a recovery hash can never be consumed
// without the verification timestamp moving in the same write.
type PGProfileStore struct {
	pool *pgxpool.Pool
}

// NewPGProfileStore creates a profile store over the given pool. The schema
// is applied by Migrate.
func NewPGProfileStore(pool *pgxpool.Pool) (*PGProfileStore, error) {
	if pool == nil {
		return nil, ErrProfileStoreRequired
	}
	return &PGProfileStore{pool: pool}, nil
}

func (s *PGProfileStore) Load(ctx context.Context, userID string) (*Profile, error) {
	const query = `
		SELECT totp_enabled, totp_secret, recovery_code_hashes, last_verified_at, updated_at
		FROM user_security_profiles
		WHERE user_id = $1`

	profile := Profile{UserID: userID}
	var lastVerifiedAt *time.Time
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&profile.TOTPEnabled,
		&profile.TOTPSecret,
		&profile.RecoveryCodeHashes,
		&lastVerifiedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load security profile: %w", err)
	}
	if lastVerifiedAt != nil {
		profile.LastVerifiedAt = *lastVerifiedAt
	}
	return &profile, nil
}

func (s *PGProfileStore) Save(ctx context.Context, profile *Profile) error {
	if profile == nil || profile.UserID == "" {
		return ErrUserIDRequired
	}

	const query = `
		INSERT INTO user_security_profiles
			(user_id, totp_enabled, totp_secret, recovery_code_hashes, last_verified_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			totp_enabled = EXCLUDED.totp_enabled,
			totp_secret = EXCLUDED.totp_secret,
			recovery_code_hashes = EXCLUDED.recovery_code_hashes,
			last_verified_at = EXCLUDED.last_verified_at,
			updated_at = EXCLUDED.updated_at`

	var lastVerifiedAt *time.Time
	if !profile.LastVerifiedAt.IsZero() {
		lastVerifiedAt = &profile.LastVerifiedAt
	}
	hashes := profile.RecoveryCodeHashes
	if hashes == nil {
		hashes = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		profile.UserID,
		profile.TOTPEnabled,
		profile.TOTPSecret,
		hashes,
		lastVerifiedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save security profile: %w", err)
	}
	return nil
}

// PGPolicyStore persists tenant step-up policies in Postgres and implements
// stepup.PolicySource.
type PGPolicyStore struct {
	pool *pgxpool.Pool
}

// NewPGPolicyStore creates a policy store over the given pool.
func NewPGPolicyStore(pool *pgxpool.Pool) (*PGPolicyStore, error) {
	if pool == nil {
		return nil, ErrPolicyStoreRequired
	}
	return &PGPolicyStore{pool: pool}, nil
}

func (s *PGPolicyStore) Policy(ctx context.Context, tenantID string) (*stepup.Policy, error) {
	const query = `
		SELECT require_mfa_for_role, step_up_window_seconds
		FROM tenant_security_policies
		WHERE tenant_id = $1`

	var (
		rolesJSON     []byte
		windowSeconds int64
	)
	err := s.pool.QueryRow(ctx, query, tenantID).Scan(&rolesJSON, &windowSeconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, stepup.ErrPolicyNotFound
		}
		return nil, fmt.Errorf("load tenant policy: %w", err)
	}

	roles := make(map[string]bool)
	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &roles); err != nil {
			return nil, fmt.Errorf("decode tenant policy roles: %w", err)
		}
	}
	return &stepup.Policy{
		RequireMFAForRole: roles,
		StepUpWindow:      time.Duration(windowSeconds) * time.Second,
	}, nil
}

// CreateDefault inserts the default policy with DO NOTHING and reads back
// whichever row won, so racing evaluations converge on one policy.
func (s *PGPolicyStore) CreateDefault(ctx context.Context, tenantID string) (*stepup.Policy, error) {
	const query = `
		INSERT INTO tenant_security_policies (tenant_id, require_mfa_for_role, step_up_window_seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id) DO NOTHING`

	policy := stepup.DefaultPolicy()
	rolesJSON, err := json.Marshal(policy.RequireMFAForRole)
	if err != nil {
		return nil, fmt.Errorf("encode tenant policy roles: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, tenantID, rolesJSON, int64(policy.Window()/time.Second)); err != nil {
		return nil, fmt.Errorf("create default tenant policy: %w", err)
	}
	return s.Policy(ctx, tenantID)
}

// Save upserts a tenant policy, replacing roles and window wholesale.
func (s *PGPolicyStore) Save(ctx context.Context, tenantID string, policy stepup.Policy) error {
	const query = `
		INSERT INTO tenant_security_policies (tenant_id, require_mfa_for_role, step_up_window_seconds, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			require_mfa_for_role = EXCLUDED.require_mfa_for_role,
			step_up_window_seconds = EXCLUDED.step_up_window_seconds,
			updated_at = now()`

	rolesJSON, err := json.Marshal(policy.RequireMFAForRole)
	if err != nil {
		return fmt.Errorf("encode tenant policy roles: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, tenantID, rolesJSON, int64(policy.StepUpWindow/time.Second)); err != nil {
		return fmt.Errorf("save tenant policy: %w", err)
	}
	return nil
}
