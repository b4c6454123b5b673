// Package tracing wraps the handful of OpenTelemetry spans the core emits:
// one around each document ingestion transaction and one around each graph
// traversal walk, so a slow SBOM or a runaway traversal shows up in a trace
// view next to the database spans a caller's own instrumentation adds.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this module's spans in a multi-service trace.
const tracerName = "github.com/trustgraph/core"

// Tracer returns the package-wide tracer. With no TracerProvider registered
// by the embedding binary, otel's global default is a no-op: spans cost a
// few allocations and record nothing until a caller wires a real exporter.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// Start starts a span as a child of any span already in ctx.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// End ends span, recording err on it when non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
