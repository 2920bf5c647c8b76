package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus registry and HTTP server responsible
// for exposing client metrics.
//
// *Metrics implements observability.Observer, so it can be attached directly
// to a tidepool client:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "search-api"})
//	client.WithObserver(m)
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	// Each instance maintains its own isolated registry to prevent metric name collisions.
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	itemsSent       *prometheus.CounterVec
}

// NewMetrics initializes and returns a new instance of the Metrics struct.
//
// The setup includes:
//   - A dedicated Prometheus registry
//   - Request counter, latency histogram and items counter, labelled by operation
//   - Optional Go, process and build info collectors
//   - A global "service" label applied to all metrics
//   - An HTTP server exposing the registry at /metrics
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:     ":9090",
//	    ServiceName: "search-api",
//	})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultMetricsAddress
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	registry := prometheus.NewRegistry()

	var registerer prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		registerer = prometheus.WrapRegistererWith(
			prometheus.Labels{"service": cfg.ServiceName},
			registry,
		)
	}

	m := &Metrics{
		Registry: registry,
	}

	m.requestsTotal = createCounterVec(cfg.Namespace, "requests_total",
		"Total number of client operations by outcome",
		[]string{"component", "operation", "status"})
	m.requestDuration = createHistogramVec(cfg.Namespace, "request_duration_seconds",
		"Duration of client operations in seconds",
		[]string{"component", "operation"}, prometheus.DefBuckets)
	m.itemsSent = createCounterVec(cfg.Namespace, "items_sent_total",
		"Number of documents or ids sent by write operations",
		[]string{"component", "operation"})

	registerer.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.itemsSent,
	)

	// GoCollector: memory, goroutines, GC. ProcessCollector: CPU, fds.
	if cfg.EnableDefaultCollectors {
		registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
