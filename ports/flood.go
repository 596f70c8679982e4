package ports

import (
	"context"
	"time"
)

// FloodGuard is a sliding-window rate limiter keyed by (event, clientKey).
// It is a defense-in-depth control: slight over- or under-counting under
// extreme concurrency is tolerable.
type FloodGuard interface {
	// IsAllowed reports whether the key has fewer than limit events inside
	// the window.
	IsAllowed(ctx context.Context, event, clientKey string, limit int, window time.Duration) (bool, error)

	// Register appends a timestamped event, pruning entries older than the
	// window as a side effect.
	Register(ctx context.Context, event, clientKey string, window time.Duration) error

	// Clear removes all events for the key.
	Clear(ctx context.Context, event, clientKey string) error
}
