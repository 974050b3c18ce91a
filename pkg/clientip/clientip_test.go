package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrymomot/stepupkit/pkg/clientip"

	"github.com/stretchr/testify/assert"
)

func newRequest(remoteAddr string, headers map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = remoteAddr
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	return r
}

func TestGetIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr fallback",
			remoteAddr: "192.0.2.10:4321",
			want:       "192.0.2.10",
		},
		{
			name:       "cloudflare header wins",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"CF-Connecting-IP": "203.0.113.5", "X-Real-IP": "198.51.100.1"},
			want:       "203.0.113.5",
		},
		{
			name:       "forwarded first valid entry",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "bogus, 198.51.100.7, 10.0.0.2"},
			want:       "198.51.100.7",
		},
		{
			name:       "real ip header",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "invalid header falls through",
			remoteAddr: "192.0.2.20:80",
			headers:    map[string]string{"CF-Connecting-IP": "not-an-ip"},
			want:       "192.0.2.20",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, clientip.GetIP(newRequest(tt.remoteAddr, tt.headers)))
		})
	}
}

func TestCoarse(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "203.0.113.0/24", clientip.Coarse("203.0.113.77"))
	assert.Equal(t, "2001:db8:1::/48", clientip.Coarse("2001:db8:1:2::5"))
	assert.Empty(t, clientip.Coarse("not-an-ip"))
	assert.Empty(t, clientip.Coarse(""))
}

func TestContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ip, ok := clientip.FromContext(ctx)
	assert.False(t, ok)
	assert.Empty(t, ip)

	ctx = clientip.SetIPToContext(ctx, "203.0.113.5")
	assert.Equal(t, "203.0.113.5", clientip.GetIPFromContext(ctx))

	ip, ok = clientip.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "203.0.113.5", ip)
}

func TestCoarseFromContext(t *testing.T) {
	t.Parallel()

	origin, ok := clientip.CoarseFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, origin)

	ctx := clientip.SetIPToContext(context.Background(), "203.0.113.77")
	origin, ok = clientip.CoarseFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "203.0.113.0/24", origin)

	ctx = clientip.SetIPToContext(context.Background(), "garbage")
	_, ok = clientip.CoarseFromContext(ctx)
	assert.False(t, ok)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	var captured string
	handler := clientip.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = clientip.GetIPFromContext(r.Context())
	}))

	req := newRequest("192.0.2.30:9999", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "192.0.2.30", captured)
}
