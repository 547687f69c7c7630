package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartRequestSpan creates a child span for one pipeline request to the
// backend.
func StartRequestSpan(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "api.execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
}

// StartResolveSpan creates a child span for a schema resolution.
func StartResolveSpan(ctx context.Context, table string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "schema.resolve",
		trace.WithAttributes(attribute.String("schema.table", table)),
	)
}

// StartRelatedSpan creates a child span for a related-record load.
func StartRelatedSpan(ctx context.Context, table string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "relation.load",
		trace.WithAttributes(attribute.String("relation.table", table)),
	)
}

// InjectHeaders injects the current trace context (traceparent, tracestate)
// into the given HTTP request headers so the backend can continue the trace.
func InjectHeaders(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// SetRequestAttributes adds request-level attributes to the current span.
func SetRequestAttributes(ctx context.Context, requestID string, cached bool) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.Bool("request.cache_hit", cached),
	)
}

// SetResponseAttributes adds response-level attributes to the current span.
func SetResponseAttributes(ctx context.Context, statusCode int, retried bool) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.Int("response.status_code", statusCode),
		attribute.Bool("response.auth_retried", retried),
	)
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
