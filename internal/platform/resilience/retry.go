package resilience

import (
	"context"
	"time"
)

// RetryPolicy retries with a linear backoff: Backoff, 2*Backoff, and so on.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Retry calls fn until it succeeds, returns an error retryable rejects, or MaxRetries is spent.
// The last error is returned; a cancelled context ends the wait early with ctx.Err().
func Retry(ctx context.Context, policy RetryPolicy, retryable func(error) bool, fn func(attempt int) error) error {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.Backoff <= 0 {
		policy.Backoff = time.Second
	}

	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		err = fn(attempt)
		if err == nil || (retryable != nil && !retryable(err)) || attempt == policy.MaxRetries {
			return err
		}

		timer := time.NewTimer(time.Duration(attempt+1) * policy.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
