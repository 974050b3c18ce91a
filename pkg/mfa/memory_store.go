package mfa

import (
	"context"
	"maps"
	"sync"

	"github.com/dmitrymomot/stepupkit/pkg/stepup"
)

// MemoryProfileStore is a thread-safe in-memory ProfileStore for tests and
// single-process deployments.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]*Profile)}
}

func (s *MemoryProfileStore) Load(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile.clone(), nil
}

func (s *MemoryProfileStore) Save(ctx context.Context, profile *Profile) error {
	if profile == nil || profile.UserID == "" {
		return ErrUserIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[profile.UserID] = profile.clone()
	return nil
}

// MemoryPolicyStore is a thread-safe in-memory stepup.PolicySource.
type MemoryPolicyStore struct {
	mu       sync.RWMutex
	policies map[string]stepup.Policy
}

// NewMemoryPolicyStore creates an empty in-memory policy store.
func NewMemoryPolicyStore() *MemoryPolicyStore {
	return &MemoryPolicyStore{policies: make(map[string]stepup.Policy)}
}

func (s *MemoryPolicyStore) Policy(ctx context.Context, tenantID string) (*stepup.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[tenantID]
	if !ok {
		return nil, stepup.ErrPolicyNotFound
	}
	return clonePolicy(policy), nil
}

// CreateDefault stores the default policy unless one already exists, in
// which case the existing one wins. Safe under concurrent evaluations.
func (s *MemoryPolicyStore) CreateDefault(ctx context.Context, tenantID string) (*stepup.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.policies[tenantID]; ok {
		return clonePolicy(existing), nil
	}
	policy := stepup.DefaultPolicy()
	s.policies[tenantID] = policy
	return clonePolicy(policy), nil
}

// Save upserts a tenant policy. Used by tenant admins to tune roles and the
// step-up window.
func (s *MemoryPolicyStore) Save(ctx context.Context, tenantID string, policy stepup.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies[tenantID] = *clonePolicy(policy)
	return nil
}

func clonePolicy(p stepup.Policy) *stepup.Policy {
	cp := p
	cp.RequireMFAForRole = maps.Clone(p.RequireMFAForRole)
	return &cp
}
