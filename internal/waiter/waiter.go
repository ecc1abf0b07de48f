// Package waiter blocks callers until tracked assets finish, polling with a
// caller-owned deadline. The tracker itself never blocks.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultInterval is used when a non-positive poll interval is given.
const DefaultInterval = 250 * time.Millisecond

// ErrTimeout is wrapped by Until when ctx ends before the condition holds.
var ErrTimeout = errors.New("timed out waiting for assets")

// Checker is satisfied by *tracker.Tracker.
type Checker interface {
	DidExpectedAssetsFinish() bool
}

// Cond reports whether the wait is over. A non-nil error aborts the wait.
type Cond func(ctx context.Context) (bool, error)

// Until evaluates cond immediately and then every interval until it returns
// true, returns an error, or ctx is done. On ctx expiry the returned error
// wraps both ErrTimeout and ctx.Err().
func Until(ctx context.Context, interval time.Duration, cond Cond) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ForAssets waits until c reports that every expected asset finished.
func ForAssets(ctx context.Context, c Checker, interval time.Duration) error {
	return Until(ctx, interval, func(context.Context) (bool, error) {
		return c.DidExpectedAssetsFinish(), nil
	})
}
