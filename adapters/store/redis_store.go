package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/proofoftom/walletgate/eth"
	"github.com/proofoftom/walletgate/ports"
)

// consumeScript deletes the nonce key only if it is still bound to the given
// address, making verify-and-delete a single atomic step on the server.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore is a Redis implementation of the NonceStore interface. Records
// expire through key TTL; redemption atomicity comes from a Lua
// compare-and-delete.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed nonce store with the given record TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) ports.NonceStore {
	return &RedisStore{
		client: client,
		prefix: "walletgate:nonce:",
		ttl:    ttl,
	}
}

// Store persists the nonce bound to the lowercase form of the address.
func (s *RedisStore) Store(ctx context.Context, nonce, walletAddress string) error {
	key := s.prefix + nonce

	if err := s.client.Set(ctx, key, eth.Normalize(walletAddress), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store nonce: %w", err)
	}

	return nil
}

// Verify reports whether an unexpired record exists for the nonce and is
// bound to the given address. Expired records are gone via TTL, so a miss
// and an expiry look the same.
func (s *RedisStore) Verify(ctx context.Context, nonce, walletAddress string) (bool, error) {
	key := s.prefix + nonce

	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to read nonce: %w", err)
	}

	return stored == eth.Normalize(walletAddress), nil
}

// Consume atomically deletes the record if it is still bound to the address.
func (s *RedisStore) Consume(ctx context.Context, nonce, walletAddress string) (bool, error) {
	key := s.prefix + nonce

	deleted, err := consumeScript.Run(ctx, s.client, []string{key}, eth.Normalize(walletAddress)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume nonce: %w", err)
	}

	return deleted > 0, nil
}

// Delete removes the record. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, nonce string) error {
	key := s.prefix + nonce

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete nonce: %w", err)
	}

	return nil
}
