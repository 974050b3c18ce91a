package audit

import (
	"context"
	"fmt"
	"time"
)

// Outcome represents the result of an audited security operation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeError   Outcome = "error"
)

// Event is a single immutable audit entry for a security-state change.
type Event struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id,omitempty"`
	ActorID   string         `json:"actor_id"`
	Action    string         `json:"action"`
	Outcome   Outcome        `json:"outcome"`
	Error     string         `json:"error,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks the event carries the minimum required fields.
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.ActorID == "" {
		return fmt.Errorf("%w: actor id is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// Logger records audit events. Implementations are best-effort by contract:
// a failed audit write must never fail the operation being audited.
type Logger interface {
	// Log records a successful action.
	Log(ctx context.Context, actorID, action string, opts ...EventOption)

	// LogFailure records an expected negative outcome (e.g. invalid code).
	LogFailure(ctx context.Context, actorID, action string, opts ...EventOption)

	// LogError records an action that failed with an infrastructure error.
	LogError(ctx context.Context, actorID, action string, err error, opts ...EventOption)
}
