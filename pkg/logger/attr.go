package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// TenantID records the tenant identifier under the key "tenant_id".
func TenantID(id string) slog.Attr {
	return slog.String("tenant_id", id)
}

// Action records the MFA operation name under the key "action".
func Action(name string) slog.Attr {
	return slog.String("action", name)
}

// Decision records a step-up decision under the key "decision".
func Decision(d string) slog.Attr {
	return slog.String("decision", d)
}
