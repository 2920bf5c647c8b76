// Package observability defines the hook through which clients in this module
// report completed operations to metrics and tracing backends.
//
// A client accepts an optional Observer:
//
//	client, _ := tidepool.NewClient(cfg)
//	client.WithObserver(metricsInstance)
//
// The metrics package provides a Prometheus backed implementation.
package observability
