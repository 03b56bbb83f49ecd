package fsm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fsm"

// startDispatchSpan creates the span for one ProcessEvent call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startDispatchSpan(ctx context.Context, machine, objectID, state, event string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fsm.process_event")
	span.SetAttributes(
		attribute.String("machine", machine),
		attribute.String("object_id", objectID),
		attribute.String("state", state),
		attribute.String("event", event),
	)

	return ctx, span
}

// startActionSpan creates a child span around an action.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller
func startActionSpan(ctx context.Context, actionName, state, event string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "fsm.action."+actionName)
	span.SetAttributes(
		attribute.String("action", actionName),
		attribute.String("state", state),
		attribute.String("event", event),
	)

	return ctx, span
}

// finishSpan records the dispatch result on a span and ends it.
func finishSpan(span trace.Span, next string, err error) {
	if next != "" {
		span.SetAttributes(attribute.String("next_state", next))
	}

	span.SetAttributes(attribute.String("reason", Reason(err)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	span.End()
}

// noopSpan returns a span that records nothing, used when tracing is off.
func noopSpan(ctx context.Context) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(context.Background())
}
