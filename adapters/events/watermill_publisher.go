package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/proofoftom/walletgate/core"
	"github.com/proofoftom/walletgate/ports"
)

// WalletLinkedTopic is the topic wallet-link notifications are published to.
const WalletLinkedTopic = "walletgate.wallet_linked"

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     WalletLinkedTopic,
	}
}

// PublishWalletLinked publishes a wallet-linked event.
func (p *WatermillPublisher) PublishWalletLinked(ctx context.Context, event core.WalletLinkedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
