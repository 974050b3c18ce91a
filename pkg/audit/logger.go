package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// contextExtractor extracts string values from context.
// It returns (value, found) where found indicates if extraction succeeded.
type contextExtractor func(context.Context) (string, bool)

type logger struct {
	storage           Storage
	log               *slog.Logger
	tenantIDExtractor contextExtractor
	ipExtractor       contextExtractor
}

// Option configures the audit logger.
type Option func(*logger)

// WithTenantIDExtractor registers a function that pulls the tenant id from context.
func WithTenantIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *logger) {
		l.tenantIDExtractor = fn
	}
}

// WithIPExtractor registers a function that pulls the coarse client network
// origin from context.
func WithIPExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *logger) {
		l.ipExtractor = fn
	}
}

// WithSlog sets the fallback logger used when a storage write fails.
func WithSlog(log *slog.Logger) Option {
	return func(l *logger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLogger creates an audit logger over the given storage. Storage failures
// are logged through slog and swallowed: audit is best-effort, the primary
// security-state change is not.
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &logger{
		storage: storage,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *logger) Log(ctx context.Context, actorID, action string, opts ...EventOption) {
	l.store(ctx, l.newEvent(ctx, actorID, action, OutcomeSuccess), opts)
}

func (l *logger) LogFailure(ctx context.Context, actorID, action string, opts ...EventOption) {
	l.store(ctx, l.newEvent(ctx, actorID, action, OutcomeFailure), opts)
}

func (l *logger) LogError(ctx context.Context, actorID, action string, err error, opts ...EventOption) {
	event := l.newEvent(ctx, actorID, action, OutcomeError)
	if err != nil {
		event.Error = err.Error()
	}
	l.store(ctx, event, opts)
}

func (l *logger) newEvent(ctx context.Context, actorID, action string, outcome Outcome) Event {
	event := Event{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}

	if l.tenantIDExtractor != nil {
		if tenantID, ok := l.tenantIDExtractor(ctx); ok {
			event.TenantID = tenantID
		}
	}
	if l.ipExtractor != nil {
		if ip, ok := l.ipExtractor(ctx); ok {
			event.IP = ip
		}
	}

	return event
}

func (l *logger) store(ctx context.Context, event Event, opts []EventOption) {
	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		l.log.WarnContext(ctx, "dropping invalid audit event",
			slog.String("action", event.Action),
			slog.Any("error", err),
		)
		return
	}

	if err := l.storage.Store(ctx, event); err != nil {
		l.log.ErrorContext(ctx, "audit write failed",
			slog.String("action", event.Action),
			slog.String("actor_id", event.ActorID),
			slog.Any("error", err),
		)
	}
}
