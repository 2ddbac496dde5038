package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel is a deterministic in-memory model for tests.
type stubModel struct {
	name       string
	dim        int
	embedCalls atomic.Int64
}

func (s *stubModel) Name() string {
	return s.name
}

func (s *stubModel) Dimension() int {
	return s.dim
}

func (s *stubModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.embedCalls.Add(1)

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, s.dim)
		for j := range vec {
			vec[j] = float32(len(text)+i+j) * 0.25
		}
		out[i] = vec
	}
	return out, nil
}

// countingLoader counts constructions and can be made to fail.
type countingLoader struct {
	loads atomic.Int64
	fail  atomic.Bool
	dim   int
}

func (c *countingLoader) load(_ context.Context, spec ModelSpec) (Model, error) {
	c.loads.Add(1)
	if c.fail.Load() {
		return nil, errors.New("runtime library missing")
	}
	return &stubModel{name: spec.Name, dim: c.dim}, nil
}

func TestCacheGetOrLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("loads once and shares the handle", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		cache := NewCache(WithLoadFunc(loader.load))

		first, err := cache.GetOrLoad(ctx, "all-MiniLM-L6-v2")
		require.NoError(t, err)

		second, err := cache.GetOrLoad(ctx, "all-MiniLM-L6-v2")
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int64(1), loader.loads.Load())
	})

	t.Run("concurrent requests coalesce into one load", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		cache := NewCache(WithLoadFunc(loader.load))

		const goroutines = 16

		var wg sync.WaitGroup
		models := make([]Model, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m, err := cache.GetOrLoad(ctx, "all-MiniLM-L6-v2")
				assert.NoError(t, err)
				models[i] = m
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int64(1), loader.loads.Load())
		for i := 1; i < goroutines; i++ {
			assert.Same(t, models[0], models[i])
		}
	})

	t.Run("distinct models load independently", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		cache := NewCache(WithLoadFunc(loader.load))

		_, err := cache.GetOrLoad(ctx, "all-MiniLM-L6-v2")
		require.NoError(t, err)

		_, err = cache.GetOrLoad(ctx, "all-mpnet-base-v2")
		require.NoError(t, err)

		assert.Equal(t, int64(2), loader.loads.Load())
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("unknown model fails without loading", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		cache := NewCache(WithLoadFunc(loader.load))

		_, err := cache.GetOrLoad(ctx, "bert-large-uncased")

		var unavailable *ModelUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, "bert-large-uncased", unavailable.Model)
		assert.Equal(t, int64(0), loader.loads.Load())
	})

	t.Run("failed load is not cached and retried", func(t *testing.T) {
		loader := &countingLoader{dim: 384}
		loader.fail.Store(true)
		cache := NewCache(WithLoadFunc(loader.load))

		_, err := cache.GetOrLoad(ctx, "all-MiniLM-L6-v2")
		var unavailable *ModelUnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, 0, cache.Len())

		// The failure cleared, the next request loads cleanly.
		loader.fail.Store(false)
		m, err := cache.GetOrLoad(ctx, "all-MiniLM-L6-v2")
		require.NoError(t, err)
		assert.Equal(t, "all-MiniLM-L6-v2", m.Name())
		assert.Equal(t, int64(2), loader.loads.Load())
	})
}

func TestLookupSpec(t *testing.T) {
	for _, name := range SupportedModels() {
		t.Run(name, func(t *testing.T) {
			spec, err := LookupSpec(name)
			require.NoError(t, err)
			assert.Equal(t, name, spec.Name)
			assert.NotEmpty(t, spec.HFRepo)
			assert.Positive(t, spec.Dimension)
		})
	}

	t.Run("unknown name", func(t *testing.T) {
		_, err := LookupSpec("no-such-model")
		require.Error(t, err)
		assert.Equal(t, fmt.Sprintf("embedding: model %q unavailable: not in the supported model table", "no-such-model"), err.Error())
	})
}
