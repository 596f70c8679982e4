package ports

import (
	"context"

	"github.com/proofoftom/walletgate/core"
)

// EventPublisher notifies external subscribers about wallet links.
// Delivery is best-effort and must never affect the authentication outcome.
type EventPublisher interface {
	PublishWalletLinked(ctx context.Context, event core.WalletLinkedEvent) error
}
