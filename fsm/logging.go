package fsm

import (
	"context"
	"log/slog"
	"time"
)

// Logger receives engine events. The engine ignores everything an
// implementation does, including panics.
type Logger interface {
	TransitionRegistered(ctx context.Context, machine, from, event, to string)
	EventReceived(ctx context.Context, machine, objectID, state, event string)
	TransitionSucceeded(ctx context.Context, machine, objectID, from, event, to string, duration time.Duration)
	TransitionFailed(ctx context.Context, machine, objectID, state, event string, err error)
	HookPanicked(ctx context.Context, machine, objectID, event string, err error)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger backed by slog.Default().
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: slog.Default(),
	}
}

// NewSlogLogger creates a logger backed by the given slog.Logger. A nil
// logger falls back to slog.Default().
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}

	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) TransitionRegistered(ctx context.Context, machine, from, event, to string) {
	l.logger.DebugContext(ctx, "Transition registered",
		"machine", machine,
		"current_state", from,
		"event", event,
		"next_state", to,
	)
}

func (l *DefaultLogger) EventReceived(ctx context.Context, machine, objectID, state, event string) {
	l.logger.DebugContext(ctx, "Processing event",
		"machine", machine,
		"object_id", objectID,
		"current_state", state,
		"event", event,
	)
}

func (l *DefaultLogger) TransitionSucceeded(
	ctx context.Context,
	machine, objectID, from, event, to string,
	duration time.Duration,
) {
	l.logger.InfoContext(ctx, "Transition completed",
		"machine", machine,
		"object_id", objectID,
		"from", from,
		"event", event,
		"to", to,
		"duration_ms", duration.Milliseconds(),
	)
}

func (l *DefaultLogger) TransitionFailed(ctx context.Context, machine, objectID, state, event string, err error) {
	fields := []any{
		"machine", machine,
		"object_id", objectID,
		"current_state", state,
		"event", event,
		"reason", Reason(err),
		"error", err,
	}

	// Faults are bugs in an action; the other failures are routine.
	if Reason(err) == ReasonActionFault {
		l.logger.ErrorContext(ctx, "Transition faulted", fields...)
	} else {
		l.logger.WarnContext(ctx, "Transition failed", fields...)
	}
}

func (l *DefaultLogger) HookPanicked(ctx context.Context, machine, objectID, event string, err error) {
	l.logger.ErrorContext(ctx, "Dispatch hook panicked",
		"machine", machine,
		"object_id", objectID,
		"event", event,
		"error", err,
	)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) TransitionRegistered(context.Context, string, string, string, string) {}

func (NopLogger) EventReceived(context.Context, string, string, string, string) {}

func (NopLogger) TransitionSucceeded(context.Context, string, string, string, string, string, time.Duration) {
}

func (NopLogger) TransitionFailed(context.Context, string, string, string, string, error) {}

func (NopLogger) HookPanicked(context.Context, string, string, string, error) {}
