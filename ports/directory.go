package ports

import (
	"context"
	"time"

	"github.com/proofoftom/walletgate/core"
)

// UserDirectory is the host's account storage, addressed by checksummed
// wallet address.
type UserDirectory interface {
	// FindByWalletAddress returns the account linked to the address,
	// core.ErrAccountNotFound if no link exists, or core.ErrWalletDisabled
	// if the link has been deactivated.
	FindByWalletAddress(ctx context.Context, address string) (*core.Account, error)

	// CreateAccountForWallet creates a new account and its wallet link in one
	// durable step. The backing store enforces address uniqueness; a loser of
	// a concurrent first-time race gets a uniqueness error, not a duplicate.
	CreateAccountForWallet(ctx context.Context, address string) (*core.Account, error)

	// TouchWallet updates the link's last-used timestamp.
	TouchWallet(ctx context.Context, address string, at time.Time) error
}

// SessionFinalizer hands a verified account to the host session layer and
// returns the session grant material.
type SessionFinalizer interface {
	FinalizeSession(ctx context.Context, account *core.Account) (string, error)
}
