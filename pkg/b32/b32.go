package b32

import "strings"

// alphabet is the RFC 4648 base32 symbol set used for shared secrets.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Encode packs the input bits five at a time into the RFC 4648 alphabet,
// uppercase and without padding. A partial final group is left-padded with
// zero bits, matching what authenticator apps expect for TOTP secrets.
func Encode(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow((len(src)*8 + 4) / 5)

	var buf uint16
	var bits uint
	for _, b := range src {
		buf = buf<<8 | uint16(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(alphabet[buf>>bits&0x1f])
		}
	}
	if bits > 0 {
		sb.WriteByte(alphabet[buf<<(5-bits)&0x1f])
	}

	return sb.String()
}

// Decode is the lenient inverse of Encode. It uppercases the input, strips
// trailing padding, and skips symbols outside the alphabet instead of
// failing, so secrets re-typed by users with stray spaces or dashes still
// decode. A trailing group smaller than 8 bits is discarded.
func Decode(s string) []byte {
	s = strings.ToUpper(strings.TrimRight(s, "="))
	if s == "" {
		return nil
	}

	out := make([]byte, 0, len(s)*5/8)

	var buf uint16
	var bits uint
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(alphabet, s[i])
		if v < 0 {
			continue
		}
		buf = buf<<5 | uint16(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
		}
	}

	return out
}
