package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/milannair/tidepool-go/v1/observability"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ObserveOperation records count, latency and size of a completed operation.
func (m *Metrics) ObserveOperation(ctx observability.OperationContext) {
	status := StatusSuccess
	if ctx.Error != nil {
		status = StatusError
	}
	m.IncrementRequests(ctx.Component, ctx.Operation, status)
	m.RecordRequestDuration(ctx.Component, ctx.Operation, ctx.Duration)
	if ctx.Size > 0 {
		m.AddItems(ctx.Component, ctx.Operation, ctx.Size)
	}
}

// IncrementRequests increments the request counter.
// Example: metrics.IncrementRequests("tidepool", "query", "success")
func (m *Metrics) IncrementRequests(component, operation, status string) {
	m.requestsTotal.WithLabelValues(component, operation, status).Inc()
}

// RecordRequestDuration records the duration (in seconds) of an operation.
func (m *Metrics) RecordRequestDuration(component, operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(component, operation).Observe(d.Seconds())
}

// AddItems adds n to the items counter of an operation.
func (m *Metrics) AddItems(component, operation string, n int64) {
	m.itemsSent.WithLabelValues(component, operation).Add(float64(n))
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
