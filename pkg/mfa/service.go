package mfa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/audit"
	"github.com/dmitrymomot/stepupkit/pkg/clientip"
	"github.com/dmitrymomot/stepupkit/pkg/lockout"
	"github.com/dmitrymomot/stepupkit/pkg/qrcode"
	"github.com/dmitrymomot/stepupkit/pkg/stepup"
	"github.com/dmitrymomot/stepupkit/pkg/totp"
)

// Audit actions emitted by the service.
const (
	actionEnroll     = "mfa.enroll"
	actionConfirm    = "mfa.confirm"
	actionChallenge  = "mfa.challenge"
	actionDisable    = "mfa.disable"
	actionRegenerate = "mfa.recovery_regenerate"
)

var totpCodeRegex = regexp.MustCompile(`^\d{6}$`)

// Service orchestrates the second-factor lifecycle: enrollment, challenge
// verification, disablement, recovery code management, and step-up decisions.
// All state changes go through ProfileStore as single atomic upserts.
type Service struct {
	profiles    ProfileStore
	policies    PolicySource
	members     MembershipResolver
	cipher      *totp.Cipher
	evaluator   *stepup.Evaluator
	challenges  *lockout.Tracker
	enrollments *lockout.Tracker
	auditor     audit.Logger
	log         *slog.Logger
	cfg         Config
	now         func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithMembershipResolver wires the external membership lookup used to resolve
// an actor's tenant when computing verification windows.
func WithMembershipResolver(m MembershipResolver) Option {
	return func(s *Service) { s.members = m }
}

// WithAuditLogger sets the audit trail sink. Without it, audit is a no-op.
func WithAuditLogger(a audit.Logger) Option {
	return func(s *Service) {
		if a != nil {
			s.auditor = a
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithChallengeTracker replaces the default in-process challenge rate
// limiter, e.g. with one backed by Redis.
func WithChallengeTracker(t *lockout.Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.challenges = t
		}
	}
}

// WithEnrollmentTracker replaces the default in-process enrollment rate
// limiter.
func WithEnrollmentTracker(t *lockout.Tracker) Option {
	return func(s *Service) {
		if t != nil {
			s.enrollments = t
		}
	}
}

// WithConfig sets issuer and code generation settings.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg.withDefaults() }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the MFA service. The profile store, policy store, and
// secret cipher are mandatory; everything else has working defaults.
func NewService(profiles ProfileStore, policies PolicySource, cipher *totp.Cipher, opts ...Option) (*Service, error) {
	if profiles == nil {
		return nil, ErrProfileStoreRequired
	}
	if policies == nil {
		return nil, ErrPolicyStoreRequired
	}
	if cipher == nil {
		return nil, ErrCipherRequired
	}

	s := &Service{
		profiles: profiles,
		policies: policies,
		cipher:   cipher,
		auditor:  nopAuditor{},
		log:      slog.Default(),
		cfg:      Config{}.withDefaults(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.challenges == nil {
		tracker, err := lockout.New(lockout.NewMemoryStore(), lockout.ChallengeDefaults())
		if err != nil {
			return nil, err
		}
		s.challenges = tracker
	}
	if s.enrollments == nil {
		tracker, err := lockout.New(lockout.NewMemoryStore(), lockout.EnrollmentDefaults())
		if err != nil {
			return nil, err
		}
		s.enrollments = tracker
	}

	evaluator, err := stepup.NewEvaluator(
		profileSourceAdapter{store: profiles},
		policies,
		stepup.WithClock(s.now),
	)
	if err != nil {
		return nil, err
	}
	s.evaluator = evaluator

	return s, nil
}

// Enroll starts TOTP enrollment: it generates a fresh secret, stores it
// encrypted with totpEnabled=false, and returns the provisioning material.
// A pending unconfirmed enrollment is silently replaced; a confirmed one
// must be disabled first.
func (s *Service) Enroll(ctx context.Context, userID, accountName string) (*Enrollment, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if err := s.consumeAttempt(ctx, s.enrollments, s.enrollKey(ctx, userID)); err != nil {
		return nil, err
	}

	profile, err := s.loadOrNew(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.TOTPEnabled {
		s.auditor.LogFailure(ctx, userID, actionEnroll, s.auditOpts(ctx, audit.WithMetadata("reason", "already_enrolled"))...)
		return nil, ErrAlreadyEnrolled
	}

	secret, err := totp.GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	encrypted, err := s.cipher.Encrypt(userID, secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt totp secret: %w", err)
	}

	profile.TOTPSecret = encrypted
	profile.TOTPEnabled = false
	profile.RecoveryCodeHashes = nil
	profile.UpdatedAt = s.now()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save security profile: %w", err)
	}

	account := accountName
	if account == "" {
		account = userID
	}
	uri, err := totp.GetTOTPURI(totp.URIParams{
		Secret:      secret,
		AccountName: account,
		Issuer:      s.cfg.Issuer,
	})
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.DataURI(uri, s.cfg.QRCodeSize)
	if err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, userID, actionEnroll, s.auditOpts(ctx)...)
	s.log.InfoContext(ctx, "totp enrollment started", slog.String("user_id", userID))

	return &Enrollment{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCodeDataURI:   qr,
	}, nil
}

// ConfirmEnrollment proves possession of the enrolled secret with a current
// code, activates the second factor, and returns the plaintext recovery
// codes. They are shown exactly once; only hashes are stored.
func (s *Service) ConfirmEnrollment(ctx context.Context, userID, code string) ([]string, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if err := validateCodeShape(code, CodeTypeTOTP); err != nil {
		return nil, err
	}

	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if profile.TOTPEnabled {
		return nil, ErrAlreadyEnrolled
	}
	if profile.TOTPSecret == "" {
		return nil, ErrNotEnrolled
	}

	if err := s.consumeAttempt(ctx, s.challenges, s.challengeKey(ctx, userID)); err != nil {
		return nil, err
	}

	ok, err := s.verifyTOTP(ctx, profile, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.auditor.LogFailure(ctx, userID, actionConfirm, s.auditOpts(ctx, audit.WithMetadata("reason", "invalid_code"))...)
		return nil, ErrInvalidCode
	}

	codes, err := totp.GenerateRecoveryCodes(s.cfg.RecoveryCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = totp.HashRecoveryCode(c)
	}

	now := s.now()
	profile.TOTPEnabled = true
	profile.RecoveryCodeHashes = hashes
	profile.LastVerifiedAt = now
	profile.UpdatedAt = now
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save security profile: %w", err)
	}

	s.resetLimiter(ctx, s.challenges, s.challengeKey(ctx, userID))
	s.auditor.Log(ctx, userID, actionConfirm, s.auditOpts(ctx)...)
	s.log.InfoContext(ctx, "totp enrollment confirmed", slog.String("user_id", userID))

	return codes, nil
}

// Challenge verifies a TOTP or recovery code against an active enrollment.
// A matched recovery code is consumed in the same atomic save that advances
// the verification timestamp. Returns how long the verification stays fresh.
func (s *Service) Challenge(ctx context.Context, userID, code string, codeType CodeType) (*Verification, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if err := validateCodeShape(code, codeType); err != nil {
		return nil, err
	}

	profile, err := s.loadEnrolled(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.consumeAttempt(ctx, s.challenges, s.challengeKey(ctx, userID)); err != nil {
		if errors.Is(err, ErrLocked) {
			s.auditor.LogFailure(ctx, userID, actionChallenge, s.auditOpts(ctx, audit.WithMetadata("reason", "locked"))...)
		}
		return nil, err
	}

	matchedIdx, ok, err := s.matchCode(ctx, profile, code, codeType)
	if err != nil {
		s.auditor.LogError(ctx, userID, actionChallenge, err, s.auditOpts(ctx)...)
		return nil, err
	}
	if !ok {
		s.auditor.LogFailure(ctx, userID, actionChallenge, s.auditOpts(ctx, audit.WithMetadata("code_type", string(codeType)))...)
		return nil, ErrInvalidCode
	}

	now := s.now()
	profile.LastVerifiedAt = now
	profile.UpdatedAt = now
	if matchedIdx >= 0 {
		profile.RecoveryCodeHashes = slices.Delete(profile.RecoveryCodeHashes, matchedIdx, matchedIdx+1)
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save security profile: %w", err)
	}

	s.resetLimiter(ctx, s.challenges, s.challengeKey(ctx, userID))
	s.auditor.Log(ctx, userID, actionChallenge, s.auditOpts(ctx, audit.WithMetadata("code_type", string(codeType)))...)

	return &Verification{VerifiedUntil: now.Add(s.stepUpWindow(ctx, userID))}, nil
}

// Disable turns the second factor off. It demands a valid current code so a
// hijacked session cannot silently weaken the account. The secret and all
// recovery hashes are purged in one save.
func (s *Service) Disable(ctx context.Context, userID, code string, codeType CodeType) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if err := validateCodeShape(code, codeType); err != nil {
		return err
	}

	profile, err := s.loadEnrolled(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.consumeAttempt(ctx, s.challenges, s.challengeKey(ctx, userID)); err != nil {
		return err
	}

	_, ok, err := s.matchCode(ctx, profile, code, codeType)
	if err != nil {
		s.auditor.LogError(ctx, userID, actionDisable, err, s.auditOpts(ctx)...)
		return err
	}
	if !ok {
		s.auditor.LogFailure(ctx, userID, actionDisable, s.auditOpts(ctx, audit.WithMetadata("reason", "invalid_code"))...)
		return ErrInvalidCode
	}

	profile.TOTPEnabled = false
	profile.TOTPSecret = ""
	profile.RecoveryCodeHashes = nil
	profile.LastVerifiedAt = time.Time{}
	profile.UpdatedAt = s.now()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save security profile: %w", err)
	}

	s.resetLimiter(ctx, s.challenges, s.challengeKey(ctx, userID))
	s.auditor.Log(ctx, userID, actionDisable, s.auditOpts(ctx)...)
	s.log.InfoContext(ctx, "totp disabled", slog.String("user_id", userID))

	return nil
}

// RegenerateRecoveryCodes replaces the whole recovery code set and returns
// the new plaintext batch. The caller must hold a fresh verification; a
// stale session gets ErrChallengeRequired instead of a new set of codes.
func (s *Service) RegenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	profile, err := s.loadEnrolled(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.isStale(profile.LastVerifiedAt, s.stepUpWindow(ctx, userID)) {
		return nil, ErrChallengeRequired
	}

	if err := s.consumeAttempt(ctx, s.enrollments, s.enrollKey(ctx, userID)); err != nil {
		return nil, err
	}

	codes, err := totp.GenerateRecoveryCodes(s.cfg.RecoveryCodeCount)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(codes))
	for i, c := range codes {
		hashes[i] = totp.HashRecoveryCode(c)
	}

	profile.RecoveryCodeHashes = hashes
	profile.UpdatedAt = s.now()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("save security profile: %w", err)
	}

	s.auditor.Log(ctx, userID, actionRegenerate, s.auditOpts(ctx)...)
	s.log.InfoContext(ctx, "recovery codes regenerated", slog.String("user_id", userID))

	return codes, nil
}

// EvaluateStepUp decides whether a gated action may proceed for the actor in
// the tenant. The decision is transient and never persisted.
func (s *Service) EvaluateStepUp(ctx context.Context, actor stepup.Actor, tenantID string) (stepup.Decision, error) {
	return s.evaluator.Evaluate(ctx, actor, tenantID)
}

// Guard is EvaluateStepUp collapsed into an error: nil when allowed,
// ErrEnrollRequired or ErrChallengeRequired otherwise. Storage failures on
// the super-admin path come back as errors, so droppers of the decision
// still deny.
func (s *Service) Guard(ctx context.Context, actor stepup.Actor, tenantID string) error {
	decision, err := s.evaluator.Evaluate(ctx, actor, tenantID)
	if err != nil {
		return err
	}
	switch decision {
	case stepup.DecisionEnrollmentRequired:
		return ErrEnrollRequired
	case stepup.DecisionChallengeRequired:
		return ErrChallengeRequired
	default:
		return nil
	}
}

func (s *Service) loadOrNew(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return &Profile{UserID: userID}, nil
		}
		return nil, err
	}
	return profile, nil
}

func (s *Service) loadEnrolled(ctx context.Context, userID string) (*Profile, error) {
	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if !profile.TOTPEnabled {
		return nil, ErrNotEnrolled
	}
	return profile, nil
}

// matchCode verifies the code against the profile. For recovery codes it
// returns the index of the consumed hash; for TOTP the index is -1.
func (s *Service) matchCode(ctx context.Context, profile *Profile, code string, codeType CodeType) (int, bool, error) {
	switch codeType {
	case CodeTypeTOTP:
		ok, err := s.verifyTOTP(ctx, profile, code)
		return -1, ok, err
	case CodeTypeRecovery:
		for i, hash := range profile.RecoveryCodeHashes {
			if totp.VerifyRecoveryCode(code, hash) {
				return i, true, nil
			}
		}
		return -1, false, nil
	default:
		return -1, false, ErrMalformedCode
	}
}

func (s *Service) verifyTOTP(ctx context.Context, profile *Profile, code string) (bool, error) {
	secret, err := s.cipher.Decrypt(profile.UserID, profile.TOTPSecret)
	if err != nil {
		return false, fmt.Errorf("decrypt totp secret: %w", err)
	}
	return totp.ValidateTOTPAt(secret, code, s.now())
}

// consumeAttempt charges one attempt against the tracker and converts a
// denial into LockedError.
func (s *Service) consumeAttempt(ctx context.Context, tracker *lockout.Tracker, key string) error {
	res, err := tracker.Check(ctx, key)
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if !res.Allowed {
		until := res.LockedUntil
		if until.IsZero() {
			until = res.ResetAt
		}
		return &LockedError{LockedUntil: until}
	}
	return nil
}

func (s *Service) resetLimiter(ctx context.Context, tracker *lockout.Tracker, key string) {
	if err := tracker.Reset(ctx, key); err != nil {
		s.log.WarnContext(ctx, "failed to reset rate limiter", slog.Any("error", err))
	}
}


// auditOpts prepends the coarse client origin, when present, to the event
// options. Audit events carry the /24 or /48, never the precise address.
func (s *Service) auditOpts(ctx context.Context, opts ...audit.EventOption) []audit.EventOption {
	if origin, ok := clientip.CoarseFromContext(ctx); ok {
		opts = append([]audit.EventOption{audit.WithIP(origin)}, opts...)
	}
	return opts
}

func (s *Service) challengeKey(ctx context.Context, userID string) string {
	return lockout.Key("mfa-challenge", userID, clientip.GetIPFromContext(ctx))
}

func (s *Service) enrollKey(ctx context.Context, userID string) string {
	return lockout.Key("mfa-enroll", userID, clientip.GetIPFromContext(ctx))
}

// stepUpWindow resolves the freshness window from the actor's tenant policy,
// falling back to the default when membership or policy cannot be resolved.
func (s *Service) stepUpWindow(ctx context.Context, userID string) time.Duration {
	if s.members == nil {
		return stepup.DefaultStepUpWindow
	}
	_, tenantID, err := s.members.ResolveRoleAndTenant(ctx, userID)
	if err != nil || tenantID == "" {
		if err != nil {
			s.log.WarnContext(ctx, "membership resolution failed", slog.Any("error", err))
		}
		return stepup.DefaultStepUpWindow
	}
	policy, err := s.policies.Policy(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, stepup.ErrPolicyNotFound) {
			s.log.WarnContext(ctx, "policy lookup failed", slog.Any("error", err))
		}
		return stepup.DefaultStepUpWindow
	}
	return policy.Window()
}

func (s *Service) isStale(lastVerifiedAt time.Time, window time.Duration) bool {
	if lastVerifiedAt.IsZero() {
		return true
	}
	return s.now().Sub(lastVerifiedAt) > window
}

func validateCodeShape(code string, codeType CodeType) error {
	code = strings.TrimSpace(code)
	switch codeType {
	case CodeTypeTOTP:
		if !totpCodeRegex.MatchString(code) {
			return ErrMalformedCode
		}
	case CodeTypeRecovery:
		if !totp.RecoveryCodeRegex.MatchString(code) {
			return ErrMalformedCode
		}
	default:
		return ErrMalformedCode
	}
	return nil
}

// profileSourceAdapter exposes ProfileStore as the evaluator's read view.
type profileSourceAdapter struct {
	store ProfileStore
}

func (a profileSourceAdapter) Profile(ctx context.Context, userID string) (*stepup.Profile, error) {
	p, err := a.store.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, stepup.ErrProfileNotFound
		}
		return nil, err
	}
	return &stepup.Profile{TOTPEnabled: p.TOTPEnabled, LastVerifiedAt: p.LastVerifiedAt}, nil
}

// nopAuditor is the default sink when no audit logger is configured.
type nopAuditor struct{}

func (nopAuditor) Log(context.Context, string, string, ...audit.EventOption) {}

func (nopAuditor) LogFailure(context.Context, string, string, ...audit.EventOption) {}

func (nopAuditor) LogError(context.Context, string, string, error, ...audit.EventOption) {}
