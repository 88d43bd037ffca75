package core

import (
	"fmt"
	"strings"
	"time"
)

// Chain identifies the wallet family a public key belongs to
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
)

// Title returns the human readable chain name used in display names
func (c Chain) Title() string {
	switch c {
	case ChainSolana:
		return "Solana"
	case ChainEthereum:
		return "Ethereum"
	default:
		return "Wallet"
	}
}

// RoleAuthenticated is both the audience and the role carried by session tokens
const RoleAuthenticated = "authenticated"

// Identity is the durable record associating a wallet public key with a user
type Identity struct {
	UserID      string    // System generated user identifier
	PublicKey   string    // Canonical wallet public key, unique
	Chain       Chain     // Wallet family of PublicKey
	DisplayName string    // Name shown to other users
	Email       string    // Placeholder address unless the user set one
	CreatedAt   time.Time // When the record was first persisted
	UpdatedAt   time.Time // Last profile update
}

// NewIdentity builds the record for a first-time login of publicKey.
// The display name and email are derived deterministically from the key.
func NewIdentity(userID string, chain Chain, publicKey string, now time.Time) *Identity {
	return &Identity{
		UserID:      userID,
		PublicKey:   publicKey,
		Chain:       chain,
		DisplayName: fmt.Sprintf("%s User %s", chain.Title(), TruncateKey(publicKey)),
		Email:       fmt.Sprintf("%s@%s.wallet", strings.ToLower(publicKey), chain),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TruncateKey shortens a key to its first 6 and last 4 characters
func TruncateKey(key string) string {
	if len(key) <= 10 {
		return key
	}
	return key[:6] + "..." + key[len(key)-4:]
}

// Session represents an authenticated user session carried by an access token
type Session struct {
	ID        string    // Unique token identifier (jti)
	UserID    string    // Identity the session belongs to
	Email     string    // Email at issuance time
	PublicKey string    // Wallet public key at issuance time
	Role      string    // Audience/role marker
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // When the token stops being accepted
	RefreshID string    // Refresh record issued alongside, if any
}

// RefreshRecord is the persisted half of a refresh token.
// Only the hash of the opaque token is stored.
type RefreshRecord struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the record is no longer usable at now
func (r *RefreshRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
