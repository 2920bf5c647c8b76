// Package tracer wraps an OpenTelemetry TracerProvider.
//
// The tidepool client opens one span per operation through StartSpan and
// forwards the trace context to the Query and Ingest services with
// InjectHeaders, so backend spans join the caller's trace.
//
//	t := tracer.NewClient(tracer.Config{ServiceName: "search-api", EnableExport: true}, log)
//	defer t.Shutdown(context.Background())
//
//	client.WithTracer(t)
//
// With EnableExport, spans are batched to an OTLP/HTTP collector configured
// through the standard OTEL_EXPORTER_OTLP_ENDPOINT environment variable.
package tracer
