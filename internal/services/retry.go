package services

import (
	"context"
	"errors"
	"time"
)

const (
	retryAttempts     = 3
	retryInitialDelay = 500 * time.Millisecond
)

// Retry runs fn up to three times, doubling the delay between attempts.
// Only transport-tagged errors are retried; any other failure is returned
// immediately. Context cancellation aborts the wait.
func Retry(ctx context.Context, fn func() error) error {
	delay := retryInitialDelay
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, ErrTransport) {
			return lastErr
		}
	}
	return lastErr
}
