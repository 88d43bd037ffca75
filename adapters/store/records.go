package store

import (
	"time"

	"github.com/lopushok9/whatbird/core"
)

// identityRecord is the serialised form of core.Identity
type identityRecord struct {
	UserID      string    `json:"user_id"`
	PublicKey   string    `json:"public_key"`
	Chain       string    `json:"chain"`
	DisplayName string    `json:"name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toIdentityRecord(i *core.Identity) identityRecord {
	return identityRecord{
		UserID:      i.UserID,
		PublicKey:   i.PublicKey,
		Chain:       string(i.Chain),
		DisplayName: i.DisplayName,
		Email:       i.Email,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}

func (r identityRecord) identity() *core.Identity {
	return &core.Identity{
		UserID:      r.UserID,
		PublicKey:   r.PublicKey,
		Chain:       core.Chain(r.Chain),
		DisplayName: r.DisplayName,
		Email:       r.Email,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// refreshRecord is the serialised form of core.RefreshRecord
type refreshRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func toRefreshRecord(r *core.RefreshRecord) refreshRecord {
	return refreshRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

func (r refreshRecord) record() *core.RefreshRecord {
	return &core.RefreshRecord{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}
