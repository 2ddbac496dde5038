package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories covers every in-tree Store implementation with the same
// contract checks.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()

	return map[string]func() Store{
		"memory": func() Store {
			return NewMemoryStore()
		},
		"local": func() Store {
			return NewLocalStore(t.TempDir())
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("open missing blob", func(t *testing.T) {
				store := newStore()

				_, err := store.Open(ctx, "missing")
				require.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("put then read all", func(t *testing.T) {
				store := newStore()

				require.NoError(t, store.Put(ctx, "col/indexes/a/indexer", []byte("hello world")))

				data, err := ReadAll(ctx, store, "col/indexes/a/indexer")
				require.NoError(t, err)
				assert.Equal(t, []byte("hello world"), data)
			})

			t.Run("put replaces content", func(t *testing.T) {
				store := newStore()

				require.NoError(t, store.Put(ctx, "blob", []byte("first")))
				require.NoError(t, store.Put(ctx, "blob", []byte("second, longer content")))

				data, err := ReadAll(ctx, store, "blob")
				require.NoError(t, err)
				assert.Equal(t, []byte("second, longer content"), data)
			})

			t.Run("read at offset", func(t *testing.T) {
				store := newStore()

				require.NoError(t, store.Put(ctx, "blob", []byte("0123456789")))

				b, err := store.Open(ctx, "blob")
				require.NoError(t, err)
				defer b.Close()

				assert.Equal(t, int64(10), b.Size())

				p := make([]byte, 4)
				n, err := b.ReadAt(p, 3)
				require.NoError(t, err)
				assert.Equal(t, 4, n)
				assert.Equal(t, []byte("3456"), p)
			})

			t.Run("delete", func(t *testing.T) {
				store := newStore()

				require.NoError(t, store.Put(ctx, "blob", []byte("x")))
				require.NoError(t, store.Delete(ctx, "blob"))

				_, err := store.Open(ctx, "blob")
				require.ErrorIs(t, err, ErrNotFound)

				// Deleting a missing blob is fine.
				require.NoError(t, store.Delete(ctx, "blob"))
			})

			t.Run("list by prefix", func(t *testing.T) {
				store := newStore()

				require.NoError(t, store.Put(ctx, "a/indexes/x/indexer", []byte("1")))
				require.NoError(t, store.Put(ctx, "a/indexes/y/indexer", []byte("2")))
				require.NoError(t, store.Put(ctx, "b/indexes/z/indexer", []byte("3")))

				names, err := store.List(ctx, "a/")
				require.NoError(t, err)
				assert.ElementsMatch(t, []string{"a/indexes/x/indexer", "a/indexes/y/indexer"}, names)
			})
		})
	}
}

func TestLocalStorePath(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	assert.Equal(t, dir, store.Root())
	assert.Contains(t, store.Path("col/indexes/a/indexer"), dir)
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	original := []byte("immutable")
	require.NoError(t, store.Put(ctx, "blob", original))

	// Mutating the caller's slice must not affect the stored copy.
	original[0] = 'X'

	data, err := ReadAll(ctx, store, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("immutable"), data)
}
