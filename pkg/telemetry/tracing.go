package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/eaglepoint/batchsim/pkg/telemetry"

// Tracer returns the global OpenTelemetry tracer for the batchsim
// instrumentation scope. With no SDK configured, the global provider's
// no-op tracer is returned, so spans are free until a real exporter is
// wired in by whatever embeds this module.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartExecutiveRun opens a span covering one Executive.Start call.
func StartExecutiveRun(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "executive.run")
}

// StartReactionPass opens a span covering one ReactionProcessor
// fixpoint pass against a single mixture.
func StartReactionPass(ctx context.Context) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "reaction.fixpoint")
}

// EndWithError records err on span (if non-nil) and closes it.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
