// Package tidepool provides a typed client for the Tidepool vector database.
//
// Tidepool runs as two HTTP services: a read-only Query service and an
// Ingest service that accepts writes and runs maintenance (WAL status,
// compaction). The Client hides the split and exposes one API.
//
// Core Features:
//   - Upsert, query (vector, text and hybrid), delete
//   - Namespace introspection, ingest status and compaction
//   - Input validation before anything touches the network
//   - Tolerance for every response layout the services have shipped
//   - A single *Error type with kinds for validation, not found,
//     service unavailable and everything else
//   - Opt-in Retry with capped exponential backoff for 503s
//   - Optional logging, observer notifications and OpenTelemetry spans
//
// # Direct Usage (Without FX)
//
//	client, err := tidepool.NewClient(tidepool.Config{
//		QueryURL:  "http://localhost:8080",
//		IngestURL: "http://localhost:8081",
//		Namespace: "default",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	err = client.Upsert(ctx, []tidepool.Document{
//		{ID: "doc-1", Vector: tidepool.Vector{0.1, 0.2, 0.3, 0.4}, Text: "hello"},
//	}, tidepool.UpsertOptions{})
//
//	resp, err := client.Query(ctx, tidepool.Vector{0.1, 0.2, 0.3, 0.4}, tidepool.QueryOptions{
//		TopK:   5,
//		Text:   "hello", // vector + text makes the query hybrid
//		Fusion: tidepool.FusionRRF,
//	})
//
// Every operation that takes a namespace falls back to Config.Namespace when
// the argument is blank.
//
// # Errors
//
// Failures are returned as *Error. Branch on kind with errors.Is or the
// helpers:
//
//	if tidepool.IsNotFoundError(err) {
//		// namespace does not exist yet
//	}
//
// Requests cancelled by the client timeout carry StatusTimeout (408) and
// match ErrTimeout.
//
// # Retries
//
// The client never retries on its own. Wrap an operation in Retry to retry
// ServiceUnavailable errors:
//
//	status, err := tidepool.Retry(ctx, tidepool.RetryPolicy{MaxAttempts: 5},
//		func(ctx context.Context) (*tidepool.IngestStatus, error) {
//			return client.Status(ctx)
//		})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		tidepool.FXModule,
//		fx.Provide(tidepool.NewConfig), // TIDEPOOL_* environment
//		fx.Supply(logger.Config{Level: logger.Info}),
//	)
//
// Metrics (v1/metrics) and tracing (v1/tracer) are picked up automatically
// when their modules are part of the application.
//
// # Configuration
//
// NewConfig reads TIDEPOOL_QUERY_URL, TIDEPOOL_INGEST_URL,
// TIDEPOOL_TIMEOUT_MS, TIDEPOOL_NAMESPACE and TIDEPOOL_HEALTH_CHECK_ON_START.
// LoadConfig reads a YAML file first:
//
//	query_url: http://query.internal:8080
//	ingest_url: http://ingest.internal:8081
//	timeout: 5s
//	default_namespace: tenant_a
//
// # Thread Safety
//
// A Client is safe for concurrent use once the With* setters have been
// called.
package tidepool
