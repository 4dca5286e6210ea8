package jobs

import (
	"context"
	"math/rand"
	"time"
)

const defaultJitterFactor = 0.3

// RetryWithBackoff calls fn up to attempts times, sleeping baseDelay*2^(n-1)
// plus up to 30% jitter between calls. Errors for which retryable returns
// false end the loop at once.
func RetryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, retryable func(error) bool, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * defaultJitterFactor //nolint:gosec // jitter only
			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
