package tracer

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	traceSpan "go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span with the given name and returns an updated context
// containing the span, along with the span itself. The span must be ended by
// the caller.
//
// Example:
//
//	ctx, span := tracer.StartSpan(ctx, "tidepool.query")
//	defer span.End()
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span) {
	return t.tracer.Tracer(instrumentationName).Start(ctx, name)
}

// RecordErrorOnSpan records an error on a span and sets its status to error.
func (t *Tracer) RecordErrorOnSpan(span traceSpan.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes adds one or more attributes to a span.
//
// Supported value types:
//   - string, int, int64, float64, bool: stored with their native type
//   - other types: converted to strings using fmt.Sprint
func (t *Tracer) SetAttributes(span traceSpan.Span, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}

	attributes := make([]attribute.KeyValue, 0, len(attrs))

	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			attributes = append(attributes, attribute.String(k, val))
		case int:
			attributes = append(attributes, attribute.Int(k, val))
		case int64:
			attributes = append(attributes, attribute.Int64(k, val))
		case float64:
			attributes = append(attributes, attribute.Float64(k, val))
		case bool:
			attributes = append(attributes, attribute.Bool(k, val))
		default:
			attributes = append(attributes, attribute.String(k, fmt.Sprint(val)))
		}
	}

	span.SetAttributes(attributes...)
}

// GetCarrier extracts the current trace context from ctx as a map of
// W3C Trace Context headers ("traceparent", "tracestate", "baggage").
func (t *Tracer) GetCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	t.propagator.Inject(ctx, carrier)
	return carrier
}

// InjectHeaders writes the trace context of ctx into outgoing HTTP headers.
func (t *Tracer) InjectHeaders(ctx context.Context, header http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(header))
}
