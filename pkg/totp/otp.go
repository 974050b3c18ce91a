package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/b32"
)

const (
	DefaultDigits = 6      // Standard 6-digit TOTP codes
	DefaultPeriod = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgo   = "SHA1" // HMAC-SHA1 algorithm (RFC 6238 standard)

	// SkewSteps is the number of 30-second steps accepted on either side of
	// the current counter during validation, i.e. a ±120 second tolerance for
	// clock drift between the server and the authenticator device. It is a
	// package policy constant so it can be tuned without touching the
	// verification algorithm.
	SkewSteps = 4

	// SecretSize is the raw secret length in bytes: 160 bits, matching the
	// HMAC-SHA1 block strength recommended by RFC 4226.
	SecretSize = 20
)

// ValidateSecretKeyRegex ensures base32 format: uppercase A-Z, digits 2-7, optional padding.
var ValidateSecretKeyRegex = regexp.MustCompile("^[A-Z2-7]+=*$")

var otpFormatRegex = regexp.MustCompile(fmt.Sprintf(`^\d{%d}$`, DefaultDigits))

// URIParams contains the parameters for otpauth URI generation.
type URIParams struct {
	Secret      string // Base32-encoded TOTP secret key (required)
	AccountName string // User identifier like email (required)
	Issuer      string // Service name displayed in authenticator apps (required)
	Algorithm   string // HMAC algorithm (optional, defaults to SHA1)
	Digits      int    // Number of digits in generated codes (optional, defaults to 6)
	Period      int    // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required URI parameters are present and valid.
func (p URIParams) Validate() error {
	if p.Secret == "" {
		return ErrMissingSecret
	}
	if !ValidateSecretKeyRegex.MatchString(p.Secret) {
		return ErrInvalidSecret
	}
	if p.AccountName == "" {
		return ErrMissingAccountName
	}
	if p.Issuer == "" {
		return ErrMissingIssuer
	}
	return nil
}

// GetDefaults returns a copy with RFC 6238 standard defaults applied to zero-valued fields.
func (p URIParams) GetDefaults() URIParams {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgo
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// GenerateSecretKey generates a new base32-encoded 160-bit secret key.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return b32.Encode(secret), nil
}

// GetTOTPURI creates a properly encoded otpauth URI for authenticator apps.
// The format follows the Key Uri Format specification:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
func GetTOTPURI(params URIParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	params = params.GetDefaults()

	label := fmt.Sprintf("%s:%s",
		url.PathEscape(params.Issuer),
		url.PathEscape(params.AccountName),
	)

	query := url.Values{}
	query.Set("secret", params.Secret)
	query.Set("issuer", params.Issuer)
	query.Set("algorithm", params.Algorithm)
	query.Set("digits", fmt.Sprintf("%d", params.Digits))
	query.Set("period", fmt.Sprintf("%d", params.Period))

	return fmt.Sprintf("otpauth://totp/%s?%s", label, query.Encode()), nil
}

// Counter returns the HOTP counter for the 30-second window containing t.
func Counter(t time.Time) int64 {
	return t.Unix() / int64(DefaultPeriod)
}

// ValidateTOTP validates the code provided by the user against the current time.
func ValidateTOTP(secret, otp string) (bool, error) {
	return ValidateTOTPAt(secret, otp, time.Now())
}

// ValidateTOTPAt validates the code against the window containing now, accepting
// codes up to SkewSteps periods on either side to absorb clock drift. The loop
// returns on the first match; the minor timing signal correlated to which
// offset matched is an accepted trade-off over a fixed 9-candidate sweep.
// Each candidate comparison itself is constant-time.
func ValidateTOTPAt(secret, otp string, now time.Time) (bool, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if secret == "" || !ValidateSecretKeyRegex.MatchString(secret) {
		return false, ErrInvalidSecret
	}
	key := b32.Decode(secret)
	if len(key) == 0 {
		return false, ErrInvalidSecret
	}

	otp = strings.TrimSpace(otp)
	if !otpFormatRegex.MatchString(otp) {
		return false, ErrInvalidOTP
	}

	counter := Counter(now)
	for i := -SkewSteps; i <= SkewSteps; i++ {
		code := fmt.Sprintf("%06d", GenerateHOTP(key, counter+int64(i), DefaultDigits))
		if subtle.ConstantTimeCompare([]byte(code), []byte(otp)) == 1 {
			return true, nil
		}
	}

	return false, nil
}

// GenerateTOTP generates a code for the current 30-second window.
// The secret must be a valid base32-encoded string.
func GenerateTOTP(secret string) (string, error) {
	return GenerateTOTPWithTime(secret, time.Now())
}

// GenerateTOTPWithTime generates a code for the 30-second window containing
// the specified time. Useful for testing or generating codes for specific moments.
func GenerateTOTPWithTime(secret string, t time.Time) (string, error) {
	secret = strings.TrimSpace(strings.ToUpper(secret))
	if secret == "" || !ValidateSecretKeyRegex.MatchString(secret) {
		return "", ErrInvalidSecret
	}
	key := b32.Decode(secret)
	if len(key) == 0 {
		return "", ErrInvalidSecret
	}

	code := GenerateHOTP(key, Counter(t), DefaultDigits)

	return fmt.Sprintf("%06d", code), nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm.
// The counter is converted into a numeric code using HMAC-SHA1 with dynamic
// truncation.
func GenerateHOTP(key []byte, counter int64, digits int) int {
	// Convert counter to big-endian 8-byte array (RFC 4226 requirement)
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter = counter >> 8
	}

	hmacHash := hmac.New(sha1.New, key)
	hmacHash.Write(counterBytes)
	hash := hmacHash.Sum(nil)

	// Dynamic truncation: low nibble of the last byte is the offset into the hash
	offset := hash[len(hash)-1] & 0x0f
	// Extract a 31-bit value (clear MSB to avoid sign ambiguity)
	code := (int(hash[offset]&0x7f) << 24) |
		(int(hash[offset+1]&0xff) << 16) |
		(int(hash[offset+2]&0xff) << 8) |
		(int(hash[offset+3] & 0xff))

	return code % int(math.Pow10(digits))
}
