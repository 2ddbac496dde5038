package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("construction never loads the model", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		cache := NewCache(WithLoadFunc(loader.load))

		p, err := NewProvider("all-MiniLM-L6-v2", WithCache(cache))
		require.NoError(t, err)
		assert.Equal(t, "all-MiniLM-L6-v2", p.ModelName())
		assert.Equal(t, int64(0), loader.loads.Load())
	})

	t.Run("unknown model rejected at construction", func(t *testing.T) {
		_, err := NewProvider("no-such-model")

		var unavailable *ModelUnavailableError
		require.ErrorAs(t, err, &unavailable)
	})
}

func TestProviderEmbed(t *testing.T) {
	ctx := context.Background()

	loader := &countingLoader{dim: 384}
	cache := NewCache(WithLoadFunc(loader.load))

	p, err := NewProvider("all-MiniLM-L6-v2", WithCache(cache))
	require.NoError(t, err)

	vectors, err := p.Embed(ctx, []string{"first chunk", "second chunk"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 384)
	assert.Len(t, vectors[1], 384)
	assert.Equal(t, int64(1), loader.loads.Load())
}

func TestProviderDimension(t *testing.T) {
	ctx := context.Background()

	t.Run("discovered lazily and cached", func(t *testing.T) {
		loader := &countingLoader{dim: 768}
		cache := NewCache(WithLoadFunc(loader.load))

		p, err := NewProvider("all-mpnet-base-v2", WithCache(cache))
		require.NoError(t, err)

		dim, err := p.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 768, dim)

		dim, err = p.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 768, dim)

		assert.Equal(t, int64(1), loader.loads.Load())
	})

	t.Run("embed populates the cached dimension", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		cache := NewCache(WithLoadFunc(loader.load))

		p, err := NewProvider("all-MiniLM-L6-v2", WithCache(cache))
		require.NoError(t, err)

		_, err = p.Embed(ctx, []string{"text"})
		require.NoError(t, err)

		dim, err := p.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 384, dim)
		assert.Equal(t, int64(1), loader.loads.Load())
	})

	t.Run("load failure surfaces and dimension stays unknown", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		loader.fail.Store(true)
		cache := NewCache(WithLoadFunc(loader.load))

		p, err := NewProvider("all-MiniLM-L6-v2", WithCache(cache))
		require.NoError(t, err)

		_, err = p.Dimension(ctx)
		var unavailable *ModelUnavailableError
		require.ErrorAs(t, err, &unavailable)

		loader.fail.Store(false)
		dim, err := p.Dimension(ctx)
		require.NoError(t, err)
		assert.Equal(t, 384, dim)
	})
}
