package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopushok9/whatbird/core"
	"github.com/lopushok9/whatbird/ports"
)

// identityStoreTests runs the common suite against any IdentityStore implementation.
func identityStoreTests(t *testing.T, store ports.IdentityStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("InsertAndFind", func(t *testing.T) {
		identity := core.NewIdentity(uuid.NewString(), core.ChainSolana, "Key"+uuid.NewString(), now)
		require.NoError(t, store.InsertIfAbsent(ctx, identity))

		byKey, err := store.FindByPublicKey(ctx, identity.PublicKey)
		require.NoError(t, err)
		assert.Equal(t, identity.UserID, byKey.UserID)
		assert.Equal(t, identity.DisplayName, byKey.DisplayName)
		assert.Equal(t, identity.Email, byKey.Email)
		assert.Equal(t, core.ChainSolana, byKey.Chain)
		assert.True(t, identity.CreatedAt.Equal(byKey.CreatedAt))

		byID, err := store.FindByID(ctx, identity.UserID)
		require.NoError(t, err)
		assert.Equal(t, identity.PublicKey, byID.PublicKey)
	})

	t.Run("FindMissing", func(t *testing.T) {
		_, err := store.FindByPublicKey(ctx, "no-such-key")
		assert.ErrorIs(t, err, core.ErrIdentityNotFound)

		_, err = store.FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, core.ErrIdentityNotFound)
	})

	t.Run("DuplicatePublicKey", func(t *testing.T) {
		key := "Dup" + uuid.NewString()
		first := core.NewIdentity(uuid.NewString(), core.ChainSolana, key, now)
		second := core.NewIdentity(uuid.NewString(), core.ChainSolana, key, now)

		require.NoError(t, store.InsertIfAbsent(ctx, first))
		assert.ErrorIs(t, store.InsertIfAbsent(ctx, second), core.ErrIdentityExists)

		got, err := store.FindByPublicKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, first.UserID, got.UserID)

		_, err = store.FindByID(ctx, second.UserID)
		assert.ErrorIs(t, err, core.ErrIdentityNotFound)
	})

	t.Run("ConcurrentInsertKeepsOneRecord", func(t *testing.T) {
		key := "Race" + uuid.NewString()
		const workers = 16

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inserted []string
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				identity := core.NewIdentity(uuid.NewString(), core.ChainSolana, key, now)
				err := store.InsertIfAbsent(ctx, identity)
				if err == nil {
					mu.Lock()
					inserted = append(inserted, identity.UserID)
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, core.ErrIdentityExists)
			}()
		}
		wg.Wait()

		require.Len(t, inserted, 1)
		got, err := store.FindByPublicKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, inserted[0], got.UserID)
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		identity := core.NewIdentity(uuid.NewString(), core.ChainSolana, "Upd"+uuid.NewString(), now)
		require.NoError(t, store.InsertIfAbsent(ctx, identity))

		first := now.Add(time.Minute)
		updated, err := store.UpdateProfile(ctx, identity.UserID, "Robin", "", first)
		require.NoError(t, err)
		assert.Equal(t, "Robin", updated.DisplayName)
		assert.Equal(t, identity.Email, updated.Email)
		assert.True(t, first.Equal(updated.UpdatedAt), "got %v", updated.UpdatedAt)

		second := now.Add(time.Hour)
		updated, err = store.UpdateProfile(ctx, identity.UserID, "", "robin@example.com", second)
		require.NoError(t, err)
		assert.Equal(t, "Robin", updated.DisplayName)
		assert.Equal(t, "robin@example.com", updated.Email)
		assert.Equal(t, identity.PublicKey, updated.PublicKey)
		assert.True(t, second.Equal(updated.UpdatedAt), "got %v", updated.UpdatedAt)
		assert.True(t, identity.CreatedAt.Equal(updated.CreatedAt))

		got, err := store.FindByID(ctx, identity.UserID)
		require.NoError(t, err)
		assert.Equal(t, "robin@example.com", got.Email)
		assert.True(t, second.Equal(got.UpdatedAt), "got %v", got.UpdatedAt)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		_, err := store.UpdateProfile(ctx, uuid.NewString(), "x", "", now)
		assert.ErrorIs(t, err, core.ErrIdentityNotFound)
	})
}

// refreshStoreTests runs the common suite against any RefreshStore implementation.
// newOwner returns a user id the store accepts as a refresh record owner.
func refreshStoreTests(t *testing.T, store ports.RefreshStore, newOwner func(t *testing.T) string) {
	t.Helper()
	ctx := context.Background()

	newRecord := func(t *testing.T) *core.RefreshRecord {
		now := time.Now().UTC().Truncate(time.Microsecond)
		return &core.RefreshRecord{
			ID:        uuid.NewString(),
			UserID:    newOwner(t),
			TokenHash: fmt.Sprintf("hash-%s", uuid.NewString()),
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now,
		}
	}

	t.Run("SaveAndConsume", func(t *testing.T) {
		rec := newRecord(t)
		require.NoError(t, store.SaveRefresh(ctx, rec))

		got, err := store.ConsumeRefresh(ctx, rec.TokenHash)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.UserID, got.UserID)
		assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))

		_, err = store.ConsumeRefresh(ctx, rec.TokenHash)
		assert.ErrorIs(t, err, core.ErrRefreshNotFound)
	})

	t.Run("ConsumeMissing", func(t *testing.T) {
		_, err := store.ConsumeRefresh(ctx, "never-existed")
		assert.ErrorIs(t, err, core.ErrRefreshNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := newRecord(t)
		require.NoError(t, store.SaveRefresh(ctx, rec))
		require.NoError(t, store.DeleteRefresh(ctx, rec.TokenHash))

		_, err := store.ConsumeRefresh(ctx, rec.TokenHash)
		assert.ErrorIs(t, err, core.ErrRefreshNotFound)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		assert.NoError(t, store.DeleteRefresh(ctx, "never-existed"))
	})

	t.Run("ConcurrentConsumeIsSingleUse", func(t *testing.T) {
		rec := newRecord(t)
		require.NoError(t, store.SaveRefresh(ctx, rec))

		const workers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := store.ConsumeRefresh(ctx, rec.TokenHash); err == nil {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, successes)
	})
}

// insertOwner creates an identity so stores with foreign keys accept refresh records.
func insertOwner(store ports.IdentityStore) func(t *testing.T) string {
	return func(t *testing.T) string {
		identity := core.NewIdentity(uuid.NewString(), core.ChainSolana, "Owner"+uuid.NewString(), time.Now().UTC())
		require.NoError(t, store.InsertIfAbsent(context.Background(), identity))
		return identity.UserID
	}
}

type purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	ports.RefreshStore
}

func purgeTests(t *testing.T, store purger, newOwner func(t *testing.T) string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	expired := &core.RefreshRecord{ID: uuid.NewString(), UserID: newOwner(t), TokenHash: "expired-" + uuid.NewString(),
		ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
	live := &core.RefreshRecord{ID: uuid.NewString(), UserID: newOwner(t), TokenHash: "live-" + uuid.NewString(),
		ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, store.SaveRefresh(ctx, expired))
	require.NoError(t, store.SaveRefresh(ctx, live))

	n, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = store.ConsumeRefresh(ctx, expired.TokenHash)
	assert.ErrorIs(t, err, core.ErrRefreshNotFound)
	_, err = store.ConsumeRefresh(ctx, live.TokenHash)
	assert.NoError(t, err)
}
