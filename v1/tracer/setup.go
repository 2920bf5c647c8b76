package tracer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/milannair/tidepool-go/v1/logger"
)

// instrumentationName is the name of the otel tracer spans are created on.
const instrumentationName = "github.com/milannair/tidepool-go"

// Tracer provides a simplified API for distributed tracing with OpenTelemetry.
// It wraps the OpenTelemetry TracerProvider and provides convenient methods for
// creating spans, recording errors, and propagating trace context to the
// Query and Ingest services.
//
// The Tracer is safe for concurrent use.
type Tracer struct {
	tracer     *trace.TracerProvider
	propagator propagation.TextMapPropagator
	logger     logger.Logger
}

// NewClient creates and initializes a new Tracer instance with OpenTelemetry.
//
// If trace export is enabled in the configuration, an OTLP HTTP exporter is
// installed with a batching span processor. If the exporter cannot be
// created the failure is logged as fatal.
//
// Example:
//
//	t := tracer.NewClient(tracer.Config{
//	    ServiceName:  "search-api",
//	    AppEnv:       "production",
//	    EnableExport: true,
//	}, log)
//	client.WithTracer(t)
func NewClient(cfg Config, log logger.Logger) *Tracer {
	var options []trace.TracerProviderOption

	if cfg.EnableExport {
		client := otlptracehttp.NewClient()
		exporter, err := otlptrace.New(context.Background(), client)
		if err != nil {
			log.Fatal("cannot initiate tracer", err, nil)
			return nil
		}
		options = append(options, trace.WithBatcher(exporter))
	}
	options = append(options, withResource(cfg))

	return newTracer(log, options...)
}

// NewWithSpanProcessor builds a Tracer that sends spans to sp, typically a
// tracetest.SpanRecorder in tests.
func NewWithSpanProcessor(cfg Config, log logger.Logger, sp trace.SpanProcessor) *Tracer {
	return newTracer(log, trace.WithSpanProcessor(sp), withResource(cfg))
}

func newTracer(log logger.Logger, options ...trace.TracerProviderOption) *Tracer {
	tp := trace.NewTracerProvider(options...)
	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagator)

	return &Tracer{tracer: tp, propagator: propagator, logger: log}
}

func withResource(cfg Config) trace.TracerProviderOption {
	return trace.WithResource(resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.DeploymentEnvironment(cfg.AppEnv),
		attribute.String("environment", cfg.AppEnv),
	))
}

// Shutdown flushes pending spans and releases the provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.tracer == nil {
		return nil
	}
	return t.tracer.Shutdown(ctx)
}
