package lockout

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// maxKeyLength caps composed keys to keep storage keys short in backends
// like Redis.
const maxKeyLength = 64

// Key composes a rate-limit key from a scope and identity parts, e.g.
// Key("mfa-challenge", userID, clientIP). Empty parts are dropped.
// Over-long keys are hashed to 32 hex chars with SHA-256 to stay under the
// length cap without collisions mattering in practice.
func Key(scope string, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	if scope != "" {
		elems = append(elems, scope)
	}
	for _, p := range parts {
		if p != "" {
			elems = append(elems, p)
		}
	}

	if len(elems) == 0 {
		return ""
	}

	combined := strings.Join(elems, ":")
	if len(combined) > maxKeyLength {
		hash := sha256.Sum256([]byte(combined))
		// 128-bit prefix provides sufficient collision resistance
		return hex.EncodeToString(hash[:16])
	}

	return combined
}
