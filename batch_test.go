package docidx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docidx/blobstore"
	"github.com/hupe1980/docidx/index"
)

func TestBatchValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		b := Batch{IDs: []int64{1, 2}, Texts: []string{"a", "b"}}
		require.NoError(t, b.Validate())
		assert.Equal(t, 2, b.Len())
	})

	t.Run("length mismatch", func(t *testing.T) {
		b := Batch{IDs: []int64{1}, Texts: []string{"a", "b"}}
		require.ErrorIs(t, b.Validate(), index.ErrLengthMismatch)
	})

	t.Run("duplicate id", func(t *testing.T) {
		b := Batch{IDs: []int64{1, 1}, Texts: []string{"a", "b"}}

		var dup *index.ErrDuplicateID
		require.ErrorAs(t, b.Validate(), &dup)
	})

	t.Run("empty text", func(t *testing.T) {
		b := Batch{IDs: []int64{1, 2}, Texts: []string{"a", ""}}
		require.Error(t, b.Validate())
	})
}

func TestAddBatch(t *testing.T) {
	ctx := context.Background()

	env := newTestEnv(t, blobstore.NewMemoryStore())

	ix, err := env.catalog.Create(ctx, "papers", IndexerFlatL2MiniLM)
	require.NoError(t, err)

	require.NoError(t, ix.AddBatch(ctx, Batch{
		IDs:   []int64{1, 2},
		Texts: []string{"alpha", "beta"},
	}))
	assert.Equal(t, 2, ix.Size())

	// Invalid batches are rejected before any embedding work.
	embedsBefore := env.embedCalls.Load()
	err = ix.AddBatch(ctx, Batch{IDs: []int64{3, 3}, Texts: []string{"x", "y"}})
	require.Error(t, err)
	assert.Equal(t, embedsBefore, env.embedCalls.Load())
}
