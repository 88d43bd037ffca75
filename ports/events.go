package ports

import (
	"context"

	"github.com/lopushok9/whatbird/core"
)

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishIdentityCreated(ctx context.Context, identity *core.Identity) error
	PublishLogout(ctx context.Context, userID string, refreshID string) error
}
