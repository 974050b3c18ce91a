// Package logger builds configured slog loggers: JSON or text output,
// environment presets, static attributes, and context extractors that inject
// request-scoped values (user id, tenant id) into every record.
package logger
