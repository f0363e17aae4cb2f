package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/papertrans/internal/llm"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *llm.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// withRetry runs call up to attempts times, sleeping between retryable
// failures.
func withRetry[T any](ctx context.Context, attempts int, backoff func(int) time.Duration, call func() (T, error)) (T, error) {
	var (
		out T
		err error
	)
	attempts = max(attempts, 1)
	for attempt := range attempts {
		out, err = call()
		if err == nil || !IsRetryable(err) || attempt == attempts-1 {
			return out, err
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
	return out, err
}
