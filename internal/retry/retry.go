package retry

import (
	"context"
	"time"
)

// Do runs fn until it succeeds, returns a non-retryable error, or maxRetries retries are spent.
// The delay doubles after every failed attempt. A nil retryable retries every error.
func Do(ctx context.Context, maxRetries int, baseDelay time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}
		if retryable != nil && !retryable(err) {
			return err
		}

		if err := Sleep(ctx, delay); err != nil {
			return err
		}

		delay *= 2
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
