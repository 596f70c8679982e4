package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/eth"
	"github.com/proofoftom/walletgate/ports"
)

// MemoryDirectory is an in-memory UserDirectory, primarily intended for
// testing. It enforces the same wallet-address uniqueness as the SQLite
// implementation.
type MemoryDirectory struct {
	accounts map[string]*core.Account   // by account id
	links    map[string]*core.WalletLink // by checksummed address
	mu       sync.Mutex
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		accounts: make(map[string]*core.Account),
		links:    make(map[string]*core.WalletLink),
	}
}

// FindByWalletAddress returns the account linked to the address.
func (d *MemoryDirectory) FindByWalletAddress(ctx context.Context, address string) (*core.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	link, ok := d.links[eth.Checksum(address)]
	if !ok {
		return nil, core.ErrAccountNotFound
	}
	if !link.Active {
		return nil, core.ErrWalletDisabled
	}
	account := *d.accounts[link.AccountID]
	return &account, nil
}

// CreateAccountForWallet creates a new account and link, failing with a
// uniqueness violation if the address is already linked.
func (d *MemoryDirectory) CreateAccountForWallet(ctx context.Context, address string) (*core.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	checksummed := eth.Checksum(address)
	if _, exists := d.links[checksummed]; exists {
		return nil, core.ErrWalletAlreadyLinked
	}

	now := time.Now().UTC()
	account := &core.Account{
		ID:        uuid.New().String(),
		Username:  checksummed,
		CreatedAt: now,
	}
	d.accounts[account.ID] = account
	d.links[checksummed] = &core.WalletLink{
		WalletAddress: checksummed,
		AccountID:     account.ID,
		CreatedAt:     now,
		LastUsedAt:    now,
		Active:        true,
	}

	result := *account
	return &result, nil
}

// TouchWallet updates the link's last-used timestamp.
func (d *MemoryDirectory) TouchWallet(ctx context.Context, address string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if link, ok := d.links[eth.Checksum(address)]; ok {
		link.LastUsedAt = at
	}
	return nil
}

// DeactivateWallet soft-revokes a wallet link.
func (d *MemoryDirectory) DeactivateWallet(ctx context.Context, address string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if link, ok := d.links[eth.Checksum(address)]; ok {
		link.Active = false
	}
	return nil
}

// Link returns a copy of the stored link for an address. Testing only.
func (d *MemoryDirectory) Link(address string) (core.WalletLink, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	link, ok := d.links[eth.Checksum(address)]
	if !ok {
		return core.WalletLink{}, false
	}
	return *link, true
}

var _ ports.UserDirectory = (*MemoryDirectory)(nil)
