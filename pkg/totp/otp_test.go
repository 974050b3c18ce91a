package totp_test

import (
	"testing"
	"time"

	"github.com/dmitrymomot/stepupkit/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretKey(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Regexp(t, totp.ValidateSecretKeyRegex, secret)
	// 20 bytes encode to 32 base32 symbols without padding
	assert.Len(t, secret, 32)
}

func TestGetTOTPURI(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		params  totp.URIParams
		want    string
		wantErr bool
	}{
		{
			name: "Basic URI",
			params: totp.URIParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			want:    "otpauth://totp/TestApp:test@example.com?algorithm=SHA1&digits=6&issuer=TestApp&period=30&secret=ABCDEFGHIJKLMNOP",
			wantErr: false,
		},
		{
			name: "URI with special characters",
			params: totp.URIParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test+user@example.com",
				Issuer:      "Test & App",
				Algorithm:   "SHA1",
				Digits:      6,
				Period:      30,
			},
			want:    "otpauth://totp/Test%20&%20App:test+user@example.com?algorithm=SHA1&digits=6&issuer=Test+%26+App&period=30&secret=ABCDEFGHIJKLMNOP",
			wantErr: false,
		},
		{
			name: "Missing secret",
			params: totp.URIParams{
				AccountName: "test@example.com",
				Issuer:      "TestApp",
			},
			wantErr: true,
		},
		{
			name: "Missing account name",
			params: totp.URIParams{
				Secret: "ABCDEFGHIJKLMNOP",
				Issuer: "TestApp",
			},
			wantErr: true,
		},
		{
			name: "Missing issuer",
			params: totp.URIParams{
				Secret:      "ABCDEFGHIJKLMNOP",
				AccountName: "test@example.com",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.GetTOTPURI(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateHOTP(t *testing.T) {
	t.Parallel()
	// RFC 4226 appendix D test vectors for the ASCII secret "12345678901234567890"
	key := []byte("12345678901234567890")
	want := []int{755224, 287082, 359152, 969429, 338314, 254676, 287922, 162583, 399871, 520489}

	for counter, expected := range want {
		assert.Equal(t, expected, totp.GenerateHOTP(key, int64(counter), 6), "counter %d", counter)
	}
}

func TestGenerateHOTPDeterministic(t *testing.T) {
	t.Parallel()
	key := []byte("abcdefghij1234567890")
	for counter := int64(0); counter < 50; counter++ {
		first := totp.GenerateHOTP(key, counter, 6)
		assert.Equal(t, first, totp.GenerateHOTP(key, counter, 6))
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 1_000_000)
	}
}

func TestGenerateTOTPWithTimeZeroPadded(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	// Sweep many windows so short codes would show up if padding were broken
	base := time.Unix(1_700_000_000, 0)
	for i := range 200 {
		code, err := totp.GenerateTOTPWithTime(secret, base.Add(time.Duration(i)*30*time.Second))
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func TestValidateTOTPAt(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	// Aligned to a 30-second boundary so offsets translate to exact steps
	gen := time.Unix(1_700_000_010, 0).Truncate(30 * time.Second)
	code, err := totp.GenerateTOTPWithTime(secret, gen)
	require.NoError(t, err)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{name: "exact time", offset: 0, want: true},
		{name: "90s later", offset: 90 * time.Second, want: true},
		{name: "90s earlier", offset: -90 * time.Second, want: true},
		{name: "120s later still in window", offset: 120 * time.Second, want: true},
		{name: "150s later beyond window", offset: 150 * time.Second, want: false},
		{name: "150s earlier beyond window", offset: -150 * time.Second, want: false},
		{name: "ten minutes later", offset: 10 * time.Minute, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, err := totp.ValidateTOTPAt(secret, code, gen.Add(tt.offset))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestValidateTOTPAtInvalidInput(t *testing.T) {
	t.Parallel()
	now := time.Now()
	tests := []struct {
		name   string
		secret string
		otp    string
	}{
		{name: "invalid base32 secret", secret: "invalid-base32!@#$", otp: "123456"},
		{name: "empty secret", secret: "", otp: "123456"},
		{name: "otp too short", secret: "ABCDEFGHIJKLMNOP", otp: "12345"},
		{name: "otp too long", secret: "ABCDEFGHIJKLMNOP", otp: "1234567"},
		{name: "otp with letters", secret: "ABCDEFGHIJKLMNOP", otp: "12345a"},
		{name: "empty otp", secret: "ABCDEFGHIJKLMNOP", otp: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ok, err := totp.ValidateTOTPAt(tt.secret, tt.otp, now)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestValidateTOTPRoundTrip(t *testing.T) {
	t.Parallel()
	secret, err := totp.GenerateSecretKey()
	require.NoError(t, err)

	code, err := totp.GenerateTOTP(secret)
	require.NoError(t, err)

	ok, err := totp.ValidateTOTP(secret, code)
	require.NoError(t, err)
	assert.True(t, ok)
}
