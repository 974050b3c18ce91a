package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultRecoveryCodeCount is the number of backup codes issued per batch.
const DefaultRecoveryCodeCount = 10

// RecoveryCodeRegex matches the displayed recovery code shape: two groups of
// four hex characters joined by a hyphen, e.g. "3FA9-C04D". Lowercase input
// is accepted because codes are normalized before hashing.
var RecoveryCodeRegex = regexp.MustCompile(`^[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}$`)

// GenerateRecoveryCodes creates cryptographically secure single-use backup
// codes. Each code carries 32 bits of entropy (4 random bytes) rendered as
// XXXX-XXXX; the hyphen exists purely for legibility and is stripped before
// hashing. Duplicates within a batch are re-drawn so every code in the set
// is distinct.
func GenerateRecoveryCodes(count int) ([]string, error) {
	if count < 1 {
		return nil, ErrInvalidRecoveryCodeCount
	}

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(codes) < count {
		codeBytes := make([]byte, 4)
		if _, err := rand.Read(codeBytes); err != nil {
			return nil, errors.Join(ErrFailedToGenerateRecoveryCode, err)
		}
		raw := strings.ToUpper(hex.EncodeToString(codeBytes))
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}
		codes = append(codes, fmt.Sprintf("%s-%s", raw[:4], raw[4:]))
	}
	return codes, nil
}

// NormalizeRecoveryCode uppercases the code and removes hyphens so that
// hashing and comparison are insensitive to how the user typed the code.
func NormalizeRecoveryCode(code string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(code), "-", ""))
}

// HashRecoveryCode creates a SHA-256 hex digest of the normalized code for
// at-rest storage. Stored hashes are compared, never the plaintext code.
func HashRecoveryCode(code string) string {
	hash := sha256.Sum256([]byte(NormalizeRecoveryCode(code)))
	return hex.EncodeToString(hash[:])
}

// VerifyRecoveryCode performs a constant-time comparison of the submitted
// code's hash against a stored hash. Comparison time must not reveal where
// the difference occurs.
func VerifyRecoveryCode(code, hashedCode string) bool {
	computedHash := HashRecoveryCode(code)

	return subtle.ConstantTimeCompare(
		[]byte(computedHash),
		[]byte(hashedCode),
	) == 1
}
