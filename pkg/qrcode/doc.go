// Package qrcode renders otpauth provisioning URIs as QR codes so users can
// scan a new TOTP secret into their authenticator app during enrollment.
package qrcode
