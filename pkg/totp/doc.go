// Package totp provides the one-time-password core for step-up verification:
// RFC 6238 TOTP generation and validation, RFC 4226 HOTP computation,
// otpauth URI construction for authenticator onboarding, AES-256-GCM helpers
// for persisting secrets, and single-use recovery codes.
//
// # Architecture
//
// The package is divided into three cohesive layers.
//
//   • crypto   – Cipher in aes256.go protects secrets at rest with
//     AES-256-GCM, deriving a per-tenant key via HKDF-SHA256 from the
//     application key loaded through config.go (TOTP_ENCRYPTION_KEY).
//
//   • totp     – otp.go implements secret generation (GenerateSecretKey),
//     HOTP/TOTP calculation (GenerateHOTP, GenerateTOTP, ValidateTOTPAt) and
//     otpauth URI construction (GetTOTPURI). Validation accepts SkewSteps
//     periods of drift on either side of the current window.
//
//   • recovery – recovery.go creates, normalizes, hashes, and verifies
//     single-use backup codes in the XXXX-XXXX display format.
//
// # Usage
//
//	secret, _ := totp.GenerateSecretKey()
//
//	cfg, _ := totp.LoadConfig()
//	cipher, _ := totp.NewCipherFromConfig(cfg)
//	encSecret, _ := cipher.Encrypt(tenantID, secret)
//
//	uri, _ := totp.GetTOTPURI(totp.URIParams{
//	    Secret:      secret,
//	    AccountName: "alice@example.com",
//	    Issuer:      "Acme",
//	})
//
//	ok, _ := totp.ValidateTOTP(secret, "123456")
//
// # Error Handling
//
// Exported operations return errors wrapped with errors.Join; inspect them
// with errors.Is against package sentinels such as ErrInvalidSecret and
// ErrInvalidOTP.
package totp
