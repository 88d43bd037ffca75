package ports

import (
	"context"
	"time"

	"github.com/lopushok9/whatbird/core"
)

// IdentityStore persists identity records with a uniqueness guarantee on the public key
type IdentityStore interface {
	// FindByPublicKey returns core.ErrIdentityNotFound when no record exists
	FindByPublicKey(ctx context.Context, publicKey string) (*core.Identity, error)
	FindByID(ctx context.Context, userID string) (*core.Identity, error)

	// InsertIfAbsent returns core.ErrIdentityExists when the public key is already taken
	InsertIfAbsent(ctx context.Context, identity *core.Identity) error

	// UpdateProfile changes the non-empty fields, stamps updatedAt and returns the updated record
	UpdateProfile(ctx context.Context, userID, displayName, email string, updatedAt time.Time) (*core.Identity, error)
}

// RefreshStore persists refresh records keyed by the hash of the refresh token
type RefreshStore interface {
	SaveRefresh(ctx context.Context, record *core.RefreshRecord) error

	// ConsumeRefresh atomically removes and returns the record.
	// It returns core.ErrRefreshNotFound when there is nothing to consume.
	ConsumeRefresh(ctx context.Context, tokenHash string) (*core.RefreshRecord, error)

	DeleteRefresh(ctx context.Context, tokenHash string) error
}
