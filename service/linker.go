package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/eth"
	"github.com/proofoftom/walletgate/logger"
	"github.com/proofoftom/walletgate/ports"
)

// AccountLinker idempotently resolves a verified wallet address to a user
// account and emits a WalletLinked notification.
type AccountLinker struct {
	directory ports.UserDirectory
	events    ports.EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// NewAccountLinker creates a new account linker. events may be nil when no
// notification sink is configured.
func NewAccountLinker(directory ports.UserDirectory, events ports.EventPublisher, log *logger.Logger) *AccountLinker {
	return &AccountLinker{
		directory: directory,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// ResolveOrCreate finds the account linked to the address, creating the
// account and link on first authentication. Address uniqueness is enforced
// by the directory's backing store; the loser of a concurrent first-time
// race falls back to the lookup path instead of erroring.
func (l *AccountLinker) ResolveOrCreate(ctx context.Context, walletAddress string) (*core.Account, bool, error) {
	account, err := l.directory.FindByWalletAddress(ctx, walletAddress)
	isNew := false

	switch {
	case err == nil:

	case errors.Is(err, core.ErrAccountNotFound):
		account, err = l.directory.CreateAccountForWallet(ctx, walletAddress)
		if errors.Is(err, core.ErrWalletAlreadyLinked) {
			account, err = l.directory.FindByWalletAddress(ctx, walletAddress)
			if err != nil {
				return nil, false, fmt.Errorf("lost create race and lookup failed: %w", err)
			}
		} else if err != nil {
			return nil, false, fmt.Errorf("failed to create account: %w", err)
		} else {
			isNew = true
		}

	default:
		return nil, false, err
	}

	if err := l.directory.TouchWallet(ctx, walletAddress, l.now()); err != nil {
		// Not worth failing an otherwise valid authentication over.
		l.log.Error("failed to touch wallet link", "error", err)
	}

	l.notify(ctx, walletAddress, account.ID, isNew)

	return account, isNew, nil
}

// notify emits the WalletLinked event. Delivery is fire-and-forget; a
// publish failure never affects the authentication outcome.
func (l *AccountLinker) notify(ctx context.Context, walletAddress, accountID string, isNew bool) {
	if l.events == nil {
		return
	}
	event := core.WalletLinkedEvent{
		WalletAddress: eth.Checksum(walletAddress),
		AccountID:     accountID,
		IsNew:         isNew,
		LinkedAt:      l.now(),
	}
	if err := l.events.PublishWalletLinked(ctx, event); err != nil {
		l.log.Error("failed to publish wallet linked event", "error", err)
	}
}
