package metrics

import (
	"time"

	"github.com/milannair/tidepool-go/v1/observability"
)

// MetricsCollector provides an interface for recording client operation metrics.
//
// This interface is implemented by the concrete *Metrics type.
type MetricsCollector interface {
	observability.Observer

	// IncrementRequests increments the request counter for an operation and outcome.
	IncrementRequests(component, operation, status string)

	// RecordRequestDuration records how long an operation took.
	RecordRequestDuration(component, operation string, d time.Duration)

	// AddItems adds n to the number of items an operation sent.
	AddItems(component, operation string, n int64)
}

var _ MetricsCollector = (*Metrics)(nil)
