// Package mfa orchestrates the second-factor lifecycle for multi-tenant
// step-up authentication: TOTP enrollment and confirmation, challenge
// verification with single-use recovery codes, disablement, and policy-driven
// step-up decisions for sensitive actions.
//
// TOTP secrets are encrypted at rest and decrypted only transiently inside a
// verification. Every state change is a single atomic profile upsert, and all
// verification attempts are rate limited with lockout.
//
// Basic wiring:
//
//	cipher, _ := totp.NewCipherFromConfig(totpCfg)
//	svc, err := mfa.NewService(
//		mfa.NewMemoryProfileStore(),
//		mfa.NewMemoryPolicyStore(),
//		cipher,
//		mfa.WithAuditLogger(auditLogger),
//	)
//
//	enrollment, err := svc.Enroll(ctx, userID, email)
//	recoveryCodes, err := svc.ConfirmEnrollment(ctx, userID, code)
//
// Gating a sensitive action:
//
//	if err := svc.Guard(ctx, actor, tenantID); err != nil {
//		// mfa.ErrorCode(err) yields a machine-readable code for the client.
//	}
package mfa
