// Package metrics exposes Prometheus metrics for tidepool client operations.
//
// *Metrics implements observability.Observer. Attach it to a client and every
// operation is counted and timed:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "search-api"})
//	client.WithObserver(m)
//
// Registered series (with the default "tidepool" namespace):
//
//	tidepool_requests_total{component,operation,status}
//	tidepool_request_duration_seconds{component,operation}
//	tidepool_items_sent_total{component,operation}
//
// Each Metrics value owns an isolated registry served at /metrics by Server.
// With fx, include metrics.FXModule and the server is started and stopped
// with the application.
package metrics
