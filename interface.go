package whatbird

import (
	"context"
	"crypto/ed25519"
)

// Authenticator is the public interface for interacting with the auth service
type Authenticator interface {
	// Login signs a fresh challenge with key and exchanges it for a session
	Login(ctx context.Context, key ed25519.PrivateKey) (*LoginResponse, error)

	// Refresh rotates the refresh token and returns new tokens
	Refresh(ctx context.Context) (*LoginResponse, error)

	// Logout invalidates the refresh token and forgets the session
	Logout(ctx context.Context) error

	// Me returns the session as seen by the server
	Me(ctx context.Context) (*MeResponse, error)
}

var _ Authenticator = (*Client)(nil)
