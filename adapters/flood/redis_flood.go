package flood

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/proofoftom/walletgate/ports"
)

// RedisGuard is a Redis implementation of the FloodGuard interface using one
// sorted set per (event, clientKey), scored by event time. Counting and
// registration are separate round trips; the limiter tolerates slight races
// under concurrent load from the same client.
type RedisGuard struct {
	client *redis.Client
	prefix string
}

// NewRedisGuard creates a Redis-backed flood guard.
func NewRedisGuard(client *redis.Client) ports.FloodGuard {
	return &RedisGuard{
		client: client,
		prefix: "walletgate:flood:",
	}
}

func (g *RedisGuard) key(event, clientKey string) string {
	return g.prefix + event + ":" + clientKey
}

// IsAllowed counts non-expired events for the key after pruning entries that
// slid out of the window.
func (g *RedisGuard) IsAllowed(ctx context.Context, event, clientKey string, limit int, window time.Duration) (bool, error) {
	key := g.key(event, clientKey)
	cutoff := time.Now().Add(-window).UnixNano()

	if err := g.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return false, fmt.Errorf("failed to prune flood window: %w", err)
	}

	count, err := g.client.ZCard(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count flood events: %w", err)
	}

	return count < int64(limit), nil
}

// Register appends a timestamped event and refreshes the key's expiry so
// idle windows clean themselves up.
func (g *RedisGuard) Register(ctx context.Context, event, clientKey string, window time.Duration) error {
	key := g.key(event, clientKey)
	now := time.Now()

	member := redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.New().String(),
	}
	if err := g.client.ZAdd(ctx, key, member).Err(); err != nil {
		return fmt.Errorf("failed to register flood event: %w", err)
	}

	if err := g.client.Expire(ctx, key, window).Err(); err != nil {
		return fmt.Errorf("failed to expire flood window: %w", err)
	}

	return nil
}

// Clear removes all events for the key.
func (g *RedisGuard) Clear(ctx context.Context, event, clientKey string) error {
	if err := g.client.Del(ctx, g.key(event, clientKey)).Err(); err != nil {
		return fmt.Errorf("failed to clear flood window: %w", err)
	}
	return nil
}
