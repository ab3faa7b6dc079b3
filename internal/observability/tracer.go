package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartServerSpan creates a new server span (for incoming requests)
func StartServerSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// SetSpanError marks the span as errored
func SetSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span as successful
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Annotate sets an attribute on the span in ctx. Other value types are
// recorded as their fmt.Sprint form.
func Annotate(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	var kv attribute.KeyValue
	switch v := value.(type) {
	case bool:
		kv = attribute.Bool(key, v)
	case string:
		kv = attribute.String(key, v)
	case int:
		kv = attribute.Int(key, v)
	case int64:
		kv = attribute.Int64(key, v)
	case float64:
		kv = attribute.Float64(key, v)
	default:
		kv = attribute.String(key, fmt.Sprint(v))
	}
	span.SetAttributes(kv)
}

// Common attribute keys for greeting spans
var (
	AttrColdStart    = attribute.Key("faas.coldstart")
	AttrInvocationID = attribute.Key("faas.invocation_id")
	AttrFunctionName = attribute.Key("faas.name")
	AttrHTTPMethod   = attribute.Key("http.request.method")
	AttrHTTPRoute    = attribute.Key("http.route")
	AttrStatusCode   = attribute.Key("http.response.status_code")
)

// AnnotationSuccessfulGreeting marks a span whose handler produced a greeting.
const AnnotationSuccessfulGreeting = "successfulGreeting"
