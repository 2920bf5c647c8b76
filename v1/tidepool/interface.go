package tidepool

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -destination=mock_logger.go -package=tidepool github.com/milannair/tidepool-go/v1/tidepool Logger

// Logger is the logging surface used by the client. *logger.LoggerClient
// from v1/logger satisfies it.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
}

// Tracer is the tracing surface used by the client. *tracer.Tracer from
// v1/tracer satisfies it.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, trace.Span)
	RecordErrorOnSpan(span trace.Span, err error)
	SetAttributes(span trace.Span, attrs map[string]interface{})
	InjectHeaders(ctx context.Context, header http.Header)
}
