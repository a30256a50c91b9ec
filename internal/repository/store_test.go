package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseKVStore runs the shared KVStore contract against an implementation.
func exerciseKVStore(t *testing.T, store KVStore) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "a", []byte(`["1","2"]`)))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `["1","2"]`, string(got))

	require.NoError(t, store.Set(ctx, "a", []byte(`[]`)))
	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, store.Remove(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// removing an absent key is not an error
	assert.NoError(t, store.Remove(ctx, "a"))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseKVStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestBoltStore(t *testing.T) {
	t.Parallel()

	store, err := OpenBolt(filepath.Join(t.TempDir(), "prefs.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	exerciseKVStore(t, store)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, KeyFavorites, []byte(`["p1"]`)))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, KeyFavorites)
	require.NoError(t, err)
	assert.Equal(t, `["p1"]`, string(got))

	keys, err := reopened.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{KeyFavorites}, keys)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := Open(ctx, StoreConfig{Backend: "memory"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, store)
	})

	t.Run("bolt", func(t *testing.T) {
		store, err := Open(ctx, StoreConfig{Backend: "bolt", Path: filepath.Join(t.TempDir(), "x.db")}, nil)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()
		assert.IsType(t, &BoltStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(ctx, StoreConfig{Backend: "redis"}, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown preference backend")
	})
}
