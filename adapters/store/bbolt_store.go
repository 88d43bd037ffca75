package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/lopushok9/whatbird/core"
)

var (
	identitiesBucket = []byte("identities")
	publicKeysBucket = []byte("identity_public_keys")
	refreshBucket    = []byte("refresh_tokens")
)

// BoltStore implements IdentityStore and RefreshStore backed by a BBolt database.
// The public key bucket maps keys to user ids and acts as the unique index.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens a BBolt database at path and creates the buckets
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{identitiesBucket, publicKeysBucket, refreshBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying BBolt database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func getIdentity(tx *bbolt.Tx, userID []byte) (*core.Identity, error) {
	data := tx.Bucket(identitiesBucket).Get(userID)
	if data == nil {
		return nil, core.ErrIdentityNotFound
	}
	var rec identityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding identity: %w", err)
	}
	return rec.identity(), nil
}

func putIdentity(tx *bbolt.Tx, identity *core.Identity) error {
	data, err := json.Marshal(toIdentityRecord(identity))
	if err != nil {
		return err
	}
	return tx.Bucket(identitiesBucket).Put([]byte(identity.UserID), data)
}

func (s *BoltStore) FindByPublicKey(ctx context.Context, publicKey string) (*core.Identity, error) {
	var identity *core.Identity
	err := s.db.View(func(tx *bbolt.Tx) error {
		userID := tx.Bucket(publicKeysBucket).Get([]byte(publicKey))
		if userID == nil {
			return core.ErrIdentityNotFound
		}
		var err error
		identity, err = getIdentity(tx, userID)
		return err
	})
	return identity, err
}

func (s *BoltStore) FindByID(ctx context.Context, userID string) (*core.Identity, error) {
	var identity *core.Identity
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		identity, err = getIdentity(tx, []byte(userID))
		return err
	})
	return identity, err
}

func (s *BoltStore) InsertIfAbsent(ctx context.Context, identity *core.Identity) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		keys := tx.Bucket(publicKeysBucket)
		if keys.Get([]byte(identity.PublicKey)) != nil {
			return core.ErrIdentityExists
		}
		if tx.Bucket(identitiesBucket).Get([]byte(identity.UserID)) != nil {
			return core.ErrIdentityExists
		}
		if err := putIdentity(tx, identity); err != nil {
			return err
		}
		return keys.Put([]byte(identity.PublicKey), []byte(identity.UserID))
	})
}

func (s *BoltStore) UpdateProfile(ctx context.Context, userID, displayName, email string, updatedAt time.Time) (*core.Identity, error) {
	var identity *core.Identity
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		identity, err = getIdentity(tx, []byte(userID))
		if err != nil {
			return err
		}
		if displayName != "" {
			identity.DisplayName = displayName
		}
		if email != "" {
			identity.Email = email
		}
		identity.UpdatedAt = updatedAt
		return putIdentity(tx, identity)
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *BoltStore) SaveRefresh(ctx context.Context, record *core.RefreshRecord) error {
	data, err := json.Marshal(toRefreshRecord(record))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(refreshBucket).Put([]byte(record.TokenHash), data)
	})
}

func (s *BoltStore) ConsumeRefresh(ctx context.Context, tokenHash string) (*core.RefreshRecord, error) {
	var record *core.RefreshRecord
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(refreshBucket)
		data := b.Get([]byte(tokenHash))
		if data == nil {
			return core.ErrRefreshNotFound
		}
		var rec refreshRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decoding refresh record: %w", err)
		}
		record = rec.record()
		return b.Delete([]byte(tokenHash))
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BoltStore) DeleteRefresh(ctx context.Context, tokenHash string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(refreshBucket).Delete([]byte(tokenHash))
	})
}

// PurgeExpired deletes refresh records that expired before now
func (s *BoltStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(refreshBucket)
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec refreshRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding refresh record: %w", err)
			}
			if rec.record().Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}
