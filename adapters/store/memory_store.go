package store

import (
	"context"
	"sync"
	"time"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/eth"
)

// MemoryStore is an in-memory implementation of the NonceStore interface,
// primarily intended for testing. Expired records are swept opportunistically
// on writes.
type MemoryStore struct {
	records map[string]core.NonceRecord
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory nonce store with the given record TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]core.NonceRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the store's time source. Testing only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.now = now
}

// Store persists the nonce bound to the lowercase form of the address.
// Storing the same nonce twice overwrites silently.
func (s *MemoryStore) Store(ctx context.Context, nonce, walletAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.records[nonce] = core.NonceRecord{
		Value:         nonce,
		WalletAddress: eth.Normalize(walletAddress),
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.ttl),
	}
	s.sweep(now)
	return nil
}

// Verify reports whether an unconsumed, unexpired record exists for the nonce
// and is bound to the given address.
func (s *MemoryStore) Verify(ctx context.Context, nonce, walletAddress string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.valid(nonce, walletAddress), nil
}

// Consume verifies and deletes the record under a single lock hold, so two
// concurrent redemptions of the same nonce cannot both succeed.
func (s *MemoryStore) Consume(ctx context.Context, nonce, walletAddress string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid(nonce, walletAddress) {
		return false, nil
	}
	delete(s.records, nonce)
	return true, nil
}

// Delete removes the record. Deleting a missing nonce is not an error.
func (s *MemoryStore) Delete(ctx context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, nonce)
	return nil
}

// valid checks existence, expiry, and address binding. Caller holds the lock.
func (s *MemoryStore) valid(nonce, walletAddress string) bool {
	record, ok := s.records[nonce]
	if !ok {
		return false
	}
	if s.now().After(record.ExpiresAt) {
		return false
	}
	return record.WalletAddress == eth.Normalize(walletAddress)
}

// sweep drops expired records. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	for nonce, record := range s.records {
		if now.After(record.ExpiresAt) {
			delete(s.records, nonce)
		}
	}
}
