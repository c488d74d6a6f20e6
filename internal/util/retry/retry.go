// Package retry provides fixed-interval polling with context cancellation.
package retry

import (
	"context"
	"time"
)

// Poll invokes fn once per interval until it reports done, returns an
// error, or the context ends. The first attempt runs immediately.
// Context cancellation is returned as the context's error, so callers
// can distinguish a deadline from a failed attempt.
func Poll(ctx context.Context, interval time.Duration, fn func(ctx context.Context) (bool, error)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := fn(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
