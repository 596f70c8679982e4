package flood

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is an in-memory implementation of the FloodGuard interface,
// primarily intended for testing and single-instance deployments.
type MemoryGuard struct {
	events map[string][]time.Time
	mu     sync.Mutex
	now    func() time.Time
}

// NewMemoryGuard creates an in-memory flood guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// SetClock overrides the guard's time source. Testing only.
func (g *MemoryGuard) SetClock(now func() time.Time) {
	g.now = now
}

func key(event, clientKey string) string {
	return event + ":" + clientKey
}

// IsAllowed reports whether the key has fewer than limit events inside the
// window. Events older than now-window are never counted.
func (g *MemoryGuard) IsAllowed(ctx context.Context, event, clientKey string, limit int, window time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-window)
	count := 0
	for _, at := range g.events[key(event, clientKey)] {
		if at.After(cutoff) {
			count++
		}
	}
	return count < limit, nil
}

// Register appends a timestamped event, pruning entries older than the window.
func (g *MemoryGuard) Register(ctx context.Context, event, clientKey string, window time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	k := key(event, clientKey)
	now := g.now()
	cutoff := now.Add(-window)

	kept := g.events[k][:0]
	for _, at := range g.events[k] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	g.events[k] = append(kept, now)
	return nil
}

// Clear removes all events for the key.
func (g *MemoryGuard) Clear(ctx context.Context, event, clientKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.events, key(event, clientKey))
	return nil
}
