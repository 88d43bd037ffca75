package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/ports"
)

const (
	IdentityCreatedTopic = "identity.created"
	LogoutTopic          = "session.logout"
)

// IdentityCreatedEvent is published after a first-time wallet login
type IdentityCreatedEvent struct {
	UserID    string    `json:"user_id"`
	PublicKey string    `json:"public_key"`
	Chain     string    `json:"chain"`
	CreatedAt time.Time `json:"created_at"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	UserID    string `json:"user_id"`
	RefreshID string `json:"refresh_id,omitempty"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	prefix    string
}

// NewWatermillPublisher creates a new Watermill publisher.
// Topics are namespaced as "<prefix>.<topic>" when prefix is not empty.
func NewWatermillPublisher(publisher message.Publisher, prefix string) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		prefix:    prefix,
	}
}

// Topic returns the namespaced name of topic
func Topic(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(Topic(p.prefix, topic), msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// PublishIdentityCreated publishes an identity created event
func (p *WatermillPublisher) PublishIdentityCreated(ctx context.Context, identity *core.Identity) error {
	return p.publish(ctx, IdentityCreatedTopic, IdentityCreatedEvent{
		UserID:    identity.UserID,
		PublicKey: identity.PublicKey,
		Chain:     string(identity.Chain),
		CreatedAt: identity.CreatedAt,
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, userID string, refreshID string) error {
	return p.publish(ctx, LogoutTopic, LogoutEvent{
		UserID:    userID,
		RefreshID: refreshID,
	})
}
