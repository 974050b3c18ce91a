package totp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	AESKeySize = 32 // Required key size for AES-256 (256 bits / 8 = 32 bytes)

	// hkdfInfo binds derived keys to this package's secret-at-rest use so the
	// same app key cannot be reused for other ciphers.
	hkdfInfo = "stepupkit/totp-secret-at-rest/v1"
)

// Cipher protects TOTP secrets at rest with AES-256-GCM. The AES key is
// derived per scope (a tenant or user identifier) with HKDF-SHA256 from the
// application key, so a leaked ciphertext from one scope is useless against
// another even under the same app key.
type Cipher struct {
	appKey []byte
}

// NewCipher returns a Cipher around the given 32-byte application key.
func NewCipher(appKey []byte) (*Cipher, error) {
	if len(appKey) != AESKeySize {
		return nil, ErrInvalidEncryptionKeyLength
	}
	key := make([]byte, AESKeySize)
	copy(key, appKey)
	return &Cipher{appKey: key}, nil
}

// NewCipherFromConfig builds a Cipher from the env-loaded configuration.
func NewCipherFromConfig(cfg Config) (*Cipher, error) {
	key, err := GetEncryptionKey(cfg)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)
	return NewCipher(key)
}

// Encrypt encrypts a plaintext secret for the given scope.
// Returns the ciphertext as a base64-encoded string.
func (c *Cipher) Encrypt(scope, plainText string) (string, error) {
	key, err := c.deriveKey(scope)
	if err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}
	defer clearBytes(key)
	return encryptWithKey(plainText, key)
}

// Decrypt decrypts a base64-encoded ciphertext for the given scope.
func (c *Cipher) Decrypt(scope, cipherTextBase64 string) (string, error) {
	key, err := c.deriveKey(scope)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}
	defer clearBytes(key)
	return decryptWithKey(cipherTextBase64, key)
}

// deriveKey creates the per-scope AES key using HKDF-SHA256. The caller is
// responsible for clearing the returned key with clearBytes when done.
func (c *Cipher) deriveKey(scope string) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, c.appKey, []byte(scope), []byte(hkdfInfo))

	derivedKey := make([]byte, AESKeySize)
	if _, err := io.ReadFull(hkdfReader, derivedKey); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}

	return derivedKey, nil
}

// clearBytes zeros out a byte slice to shorten the window sensitive key
// material stays in memory.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// EncryptSecret encrypts the TOTP secret using AES-256-GCM with the raw key.
// Returns the ciphertext as a base64-encoded string.
func EncryptSecret(plainText string, key []byte) (string, error) {
	if len(key) != AESKeySize {
		return "", errors.Join(ErrFailedToEncryptSecret, ErrInvalidEncryptionKeyLength)
	}
	return encryptWithKey(plainText, key)
}

// DecryptSecret decrypts the encrypted TOTP secret with the raw key.
// Expects the ciphertext as a base64-encoded string.
func DecryptSecret(cipherTextBase64 string, key []byte) (string, error) {
	if len(key) != AESKeySize {
		return "", errors.Join(ErrFailedToDecryptSecret, ErrInvalidEncryptionKeyLength)
	}
	return decryptWithKey(cipherTextBase64, key)
}

func encryptWithKey(plainText string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrFailedToEncryptSecret, err)
	}

	cipherText := aesGCM.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

func decryptWithKey(cipherTextBase64 string, key []byte) (string, error) {
	cipherText, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	nonceSize := aesGCM.NonceSize()
	if len(cipherText) < nonceSize {
		return "", errors.Join(ErrFailedToDecryptSecret, ErrInvalidCipherTooShort)
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]

	plainText, err := aesGCM.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", errors.Join(ErrFailedToDecryptSecret, err)
	}

	return string(plainText), nil
}

// GenerateEncryptionKey creates a new random 32-byte key suitable for AES-256.
func GenerateEncryptionKey() ([]byte, error) {
	key := make([]byte, AESKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Join(ErrFailedToGenerateEncryptionKey, err)
	}
	return key, nil
}

// GenerateEncodedEncryptionKey generates a new random 32-byte key and returns
// it base64-encoded, ready to be stored in the configuration.
func GenerateEncodedEncryptionKey() (string, error) {
	key, err := GenerateEncryptionKey()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// GetEncryptionKey decodes the encryption key from the configuration.
// The key must be a 32-byte base64-encoded string.
func GetEncryptionKey(cfg Config) ([]byte, error) {
	if cfg.EncryptionKey == "" {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrEncryptionKeyNotSet)
	}

	key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, err)
	}

	if len(key) != AESKeySize {
		return nil, errors.Join(ErrFailedToLoadEncryptionKey, ErrInvalidEncryptionKeyLength)
	}

	return key, nil
}
