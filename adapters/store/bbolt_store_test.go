package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltStore(t *testing.T) {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "whatbird.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	identityStoreTests(t, s)
	refreshStoreTests(t, s, anyOwner)
	t.Run("PurgeExpired", func(t *testing.T) { purgeTests(t, s, anyOwner) })
}

func TestBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatbird.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)

	owner := insertOwner(s)(t)
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	_, err = s.FindByID(t.Context(), owner)
	require.NoError(t, err)
}
