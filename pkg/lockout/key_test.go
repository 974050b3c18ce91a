package lockout_test

import (
	"strings"
	"testing"

	"github.com/dmitrymomot/stepupkit/pkg/lockout"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		scope string
		parts []string
		want  string
	}{
		{name: "scope only", scope: "mfa-challenge", want: "mfa-challenge"},
		{name: "scope with parts", scope: "mfa-challenge", parts: []string{"user-1", "10.0.0.1"}, want: "mfa-challenge:user-1:10.0.0.1"},
		{name: "empty parts dropped", scope: "mfa-enroll", parts: []string{"", "user-1", ""}, want: "mfa-enroll:user-1"},
		{name: "all empty", scope: "", parts: []string{"", ""}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lockout.Key(tt.scope, tt.parts...))
		})
	}
}

func TestKeyHashesLongInput(t *testing.T) {
	t.Parallel()
	long := lockout.Key("scope", strings.Repeat("x", 200))
	assert.Len(t, long, 32)

	// Stable for the same input, distinct for different input
	assert.Equal(t, long, lockout.Key("scope", strings.Repeat("x", 200)))
	assert.NotEqual(t, long, lockout.Key("scope", strings.Repeat("y", 200)))
}
