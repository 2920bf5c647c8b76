package observability

import "time"

// Observer receives a notification after every client operation completes.
// Implementations must be safe for concurrent use; the tidepool client calls
// ObserveOperation from whichever goroutine issued the operation.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes a single completed operation.
type OperationContext struct {
	// Component is the emitting package, e.g. "tidepool".
	Component string

	// Operation is the logical operation name, e.g. "query" or "upsert".
	Operation string

	// Resource is the primary target of the operation (the namespace for tidepool).
	Resource string

	// SubResource carries secondary context such as the backend service name.
	SubResource string

	// Duration is the wall-clock time spent in the operation.
	Duration time.Duration

	// Error is the error returned to the caller, nil on success.
	Error error

	// Size is the number of items sent (documents upserted, ids deleted).
	Size int64

	// Metadata holds operation specific extras.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}
