// Package b32 implements the unpadded RFC 4648 base32 codec used for TOTP
// shared secrets.
//
// Encoding always produces uppercase output without padding, the format
// authenticator applications expect in otpauth URIs. Decoding is deliberately
// lenient: unknown symbols are skipped rather than rejected so that secrets
// re-typed by a user (with spaces, dashes or lowercase letters) still decode
// to the original key material.
package b32
