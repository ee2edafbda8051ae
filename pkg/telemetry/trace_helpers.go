package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for every distill span
const TracerName = "distill"

// Attribute keys shared by the pipeline spans
const (
	AttrRunID      = attribute.Key("distill.run_id")
	AttrSource     = attribute.Key("distill.source")
	AttrSourceType = attribute.Key("distill.source_type")
	AttrPass       = attribute.Key("distill.pass")
	AttrChunks     = attribute.Key("distill.chunks")
	AttrCandidates = attribute.Key("distill.candidates")
	AttrSkills     = attribute.Key("distill.skills")
	AttrErrorKind  = attribute.Key("distill.error_kind")
)

// Tracer returns the distill tracer from the global provider
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// WithSpan runs f inside a span and records its error, if any
func WithSpan(ctx context.Context, name string, f func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	err := f(ctx)
	End(span, err)
	return err
}

// End sets the span status from err. It does not end the span.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SetAttributes adds attributes to the span in ctx
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// AddEvent adds an event to the span in ctx
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
