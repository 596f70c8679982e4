package flood

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard_LimitEnforced(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	for i := 0; i < 5; i++ {
		allowed, err := g.IsAllowed(ctx, "authenticate", "1.2.3.4", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
		require.NoError(t, g.Register(ctx, "authenticate", "1.2.3.4", time.Minute))
	}

	allowed, err := g.IsAllowed(ctx, "authenticate", "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "the 6th attempt within the window is rejected")
}

func TestMemoryGuard_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Register(ctx, "authenticate", "1.2.3.4", time.Minute))
	}

	allowed, err := g.IsAllowed(ctx, "authenticate", "5.6.7.8", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "another client is unaffected")

	allowed, err = g.IsAllowed(ctx, "nonce", "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "another event for the same client is unaffected")
}

func TestMemoryGuard_WindowSlides(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	now := time.Now()
	g.SetClock(func() time.Time { return now })

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Register(ctx, "authenticate", "1.2.3.4", time.Minute))
	}

	allowed, err := g.IsAllowed(ctx, "authenticate", "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	// Events older than now-window are never counted.
	g.SetClock(func() time.Time { return now.Add(61 * time.Second) })
	allowed, err = g.IsAllowed(ctx, "authenticate", "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestMemoryGuard_Clear(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Register(ctx, "authenticate", "1.2.3.4", time.Minute))
	}
	require.NoError(t, g.Clear(ctx, "authenticate", "1.2.3.4"))

	allowed, err := g.IsAllowed(ctx, "authenticate", "1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "a cleared key has no remaining events")
}

func TestMemoryGuard_RegisterPrunes(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	now := time.Now()
	g.SetClock(func() time.Time { return now })
	for i := 0; i < 4; i++ {
		require.NoError(t, g.Register(ctx, "authenticate", "1.2.3.4", time.Minute))
	}

	g.SetClock(func() time.Time { return now.Add(2 * time.Minute) })
	require.NoError(t, g.Register(ctx, "authenticate", "1.2.3.4", time.Minute))

	g.mu.Lock()
	remaining := len(g.events["authenticate:1.2.3.4"])
	g.mu.Unlock()
	assert.Equal(t, 1, remaining, "stale entries are pruned on register")
}
