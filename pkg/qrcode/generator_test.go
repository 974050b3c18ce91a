package qrcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrymomot/stepupkit/pkg/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const provisioningURI = "otpauth://totp/Acme:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Acme"

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestImage(t *testing.T) {
	t.Parallel()
	png, err := qrcode.Image(provisioningURI, 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestImageEmptyContent(t *testing.T) {
	t.Parallel()
	_, err := qrcode.Image("   ", 256)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestDataURI(t *testing.T) {
	t.Parallel()
	uri, err := qrcode.DataURI(provisioningURI, 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, err = qrcode.DataURI("", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}
