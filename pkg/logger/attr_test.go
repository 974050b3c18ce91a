package logger_test

import (
	"errors"
	"testing"

	"github.com/dmitrymomot/stepupkit/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestErrorAttr(t *testing.T) {
	t.Parallel()
	assert.Empty(t, logger.Error(nil).Key)

	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
}

func TestDomainAttrs(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "user_id", logger.UserID("u1").Key)
	assert.Equal(t, "tenant_id", logger.TenantID("t1").Key)
	assert.Equal(t, "action", logger.Action("mfa.enroll").Key)
	assert.Equal(t, "decision", logger.Decision("allowed").Key)
}
