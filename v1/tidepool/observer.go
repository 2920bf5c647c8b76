package tidepool

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/milannair/tidepool-go/v1/observability"
)

// observeOperation notifies the observer (if any) about a finished operation.
// The namespace is the resource and the backend service the sub-resource.
func (c *Client) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if c == nil || c.observer == nil {
		return
	}

	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "tidepool",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    metadata,
	})
}

// begin opens the span for an operation and returns the function that
// closes it and reports the outcome to the observer.
func (c *Client) begin(ctx context.Context, operation, namespace string, service Service, size int64) (context.Context, func(error)) {
	start := time.Now()

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.StartSpan(ctx, "tidepool."+operation)
		attrs := map[string]interface{}{
			"tidepool.operation": operation,
			"tidepool.service":   string(service),
		}
		if namespace != "" {
			attrs["tidepool.namespace"] = namespace
		}
		c.tracer.SetAttributes(span, attrs)
	}

	return ctx, func(err error) {
		if span != nil {
			if err != nil {
				c.tracer.RecordErrorOnSpan(span, err)
			}
			span.End()
		}
		c.observeOperation(operation, namespace, string(service), time.Since(start), err, size, nil)
	}
}
