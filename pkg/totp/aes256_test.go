package totp_test

import (
	"testing"

	"github.com/dmitrymomot/stepupkit/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	plain := "JBSWY3DPEHPK3PXP"
	enc, err := totp.EncryptSecret(plain, key)
	require.NoError(t, err)
	assert.NotEqual(t, plain, enc)

	dec, err := totp.DecryptSecret(enc, key)
	require.NoError(t, err)
	assert.Equal(t, plain, dec)
}

func TestEncryptSecretInvalidKey(t *testing.T) {
	t.Parallel()
	_, err := totp.EncryptSecret("secret", []byte("short"))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)

	_, err = totp.DecryptSecret("irrelevant", []byte("short"))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestDecryptSecretTampered(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	enc, err := totp.EncryptSecret("JBSWY3DPEHPK3PXP", key)
	require.NoError(t, err)

	_, err = totp.DecryptSecret("A"+enc[1:], key)
	assert.Error(t, err)

	otherKey, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	_, err = totp.DecryptSecret(enc, otherKey)
	assert.Error(t, err)
}

func TestCipherScopedKeys(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	cipher, err := totp.NewCipher(key)
	require.NoError(t, err)

	plain := "JBSWY3DPEHPK3PXP"
	enc, err := cipher.Encrypt("tenant-a", plain)
	require.NoError(t, err)

	dec, err := cipher.Decrypt("tenant-a", enc)
	require.NoError(t, err)
	assert.Equal(t, plain, dec)

	// A different tenant scope derives a different key
	_, err = cipher.Decrypt("tenant-b", enc)
	assert.Error(t, err)
}

func TestNewCipherInvalidKey(t *testing.T) {
	t.Parallel()
	_, err := totp.NewCipher([]byte("too-short"))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestGenerateEncodedEncryptionKey(t *testing.T) {
	t.Parallel()
	encoded, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	key, err := totp.GetEncryptionKey(totp.Config{EncryptionKey: encoded})
	require.NoError(t, err)
	assert.Len(t, key, totp.AESKeySize)
}

func TestGetEncryptionKeyErrors(t *testing.T) {
	t.Parallel()
	_, err := totp.GetEncryptionKey(totp.Config{})
	assert.ErrorIs(t, err, totp.ErrEncryptionKeyNotSet)

	_, err = totp.GetEncryptionKey(totp.Config{EncryptionKey: "not-base64!!"})
	assert.Error(t, err)

	_, err = totp.GetEncryptionKey(totp.Config{EncryptionKey: "c2hvcnQ="})
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}
