package docstore

import (
	"context"
	stderrors "errors"
	"time"
)

// RetryableError marks a failure as transient; connectWithRetry retries it.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return stderrors.As(err, &re)
}

// retryDelay is the first backoff interval. Tests shorten it.
var retryDelay = 250 * time.Millisecond

// retryWithBackoff retries fn up to 3 times with exponential backoff.
// Only errors wrapped with Retryable trigger retries; the last error is
// returned unwrapped.
func retryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	var re *RetryableError
	if stderrors.As(lastErr, &re) {
		return re.Err
	}
	return lastErr
}

// connectWithRetry pings a freshly opened remote backend, retrying transient
// connection failures.
func connectWithRetry(ctx context.Context, ping func(context.Context) error) error {
	return retryWithBackoff(ctx, func() error {
		if err := ping(ctx); err != nil {
			if ctx.Err() != nil {
				return err
			}
			return Retryable(err)
		}
		return nil
	})
}
