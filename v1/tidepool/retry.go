package tidepool

import (
	"context"
	"time"
)

// Retry defaults
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 500 * time.Millisecond
	MaxRetryDelay         = 10 * time.Second
)

// RetryPolicy bounds Retry. Zero fields take the defaults above.
type RetryPolicy struct {
	// MaxAttempts counts the first call.
	MaxAttempts int
	BaseDelay   time.Duration

	// Sleep waits between attempts. The default honours ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry, if set, is called before each wait with the zero-based index
	// of the failed attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Retry runs op until it succeeds, fails with an error other than
// ServiceUnavailable, or MaxAttempts is reached. Before the retry that
// follows attempt i it waits min(BaseDelay * 2^i, MaxRetryDelay).
//
// Example:
//
//	status, err := tidepool.Retry(ctx, tidepool.RetryPolicy{}, func(ctx context.Context) (*tidepool.IngestStatus, error) {
//	    return client.Status(ctx)
//	})
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	base := policy.BaseDelay
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !IsServiceUnavailableError(err) || attempt == attempts-1 {
			return zero, err
		}

		delay := backoffDelay(base, attempt)
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, &Error{Kind: KindClient, Message: "retry interrupted", Err: err}
		}
	}

	return zero, newClientError("retry attempts exhausted")
}

func backoffDelay(base time.Duration, attempt int) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	if delay > MaxRetryDelay {
		return MaxRetryDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
