package store

import (
	"context"
	"sync"
	"time"

	"github.com/lopushok9/whatbird/core"
)

// MemoryStore is an in-memory implementation of the IdentityStore and RefreshStore interfaces
type MemoryStore struct {
	mu         sync.RWMutex
	identities map[string]*core.Identity      // by user id
	byKey      map[string]string              // public key -> user id
	refresh    map[string]*core.RefreshRecord // by token hash
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities: make(map[string]*core.Identity),
		byKey:      make(map[string]string),
		refresh:    make(map[string]*core.RefreshRecord),
	}
}

// FindByPublicKey returns a copy of the identity registered for publicKey
func (s *MemoryStore) FindByPublicKey(ctx context.Context, publicKey string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byKey[publicKey]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}
	identity := *s.identities[userID]
	return &identity, nil
}

// FindByID returns a copy of the identity with the given user id
func (s *MemoryStore) FindByID(ctx context.Context, userID string) (*core.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[userID]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}
	cp := *identity
	return &cp, nil
}

// InsertIfAbsent stores identity unless its public key is already registered
func (s *MemoryStore) InsertIfAbsent(ctx context.Context, identity *core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[identity.PublicKey]; exists {
		return core.ErrIdentityExists
	}
	if _, exists := s.identities[identity.UserID]; exists {
		return core.ErrIdentityExists
	}

	cp := *identity
	s.identities[identity.UserID] = &cp
	s.byKey[identity.PublicKey] = identity.UserID
	return nil
}

// UpdateProfile overwrites the non-empty fields of the identity
func (s *MemoryStore) UpdateProfile(ctx context.Context, userID, displayName, email string, updatedAt time.Time) (*core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.identities[userID]
	if !ok {
		return nil, core.ErrIdentityNotFound
	}
	if displayName != "" {
		identity.DisplayName = displayName
	}
	if email != "" {
		identity.Email = email
	}
	identity.UpdatedAt = updatedAt

	cp := *identity
	return &cp, nil
}

// SaveRefresh stores a refresh record
func (s *MemoryStore) SaveRefresh(ctx context.Context, record *core.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	s.refresh[record.TokenHash] = &cp
	return nil
}

// ConsumeRefresh removes and returns the refresh record for tokenHash
func (s *MemoryStore) ConsumeRefresh(ctx context.Context, tokenHash string) (*core.RefreshRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.refresh[tokenHash]
	if !ok {
		return nil, core.ErrRefreshNotFound
	}
	delete(s.refresh, tokenHash)
	return record, nil
}

// DeleteRefresh removes the refresh record for tokenHash if present
func (s *MemoryStore) DeleteRefresh(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.refresh, tokenHash)
	return nil
}

// PurgeExpired drops refresh records that expired before now
func (s *MemoryStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for hash, record := range s.refresh {
		if record.Expired(now) {
			delete(s.refresh, hash)
			n++
		}
	}
	return n, nil
}
