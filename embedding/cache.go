package embedding

import (
	"context"
	"sync"
)

// LoadFunc constructs a Model from its spec. The default loads an ONNX
// runtime session; tests inject stubs.
type LoadFunc func(ctx context.Context, spec ModelSpec) (Model, error)

// Cache loads each model at most once and shares the handle across all
// consumers. Loading a sentence transformer takes seconds and hundreds of
// megabytes, so concurrent requests for the same model must coalesce.
//
// Failed loads are not cached. A transient failure (network, missing
// runtime library) is retried on the next request.
type Cache struct {
	mu     sync.RWMutex
	models map[string]Model
	load   LoadFunc
}

// CacheOptions contains configuration options for the model cache.
type CacheOptions struct {
	// LoadFunc overrides how models are constructed.
	LoadFunc LoadFunc
}

// NewCache creates a model cache. Without options it loads ONNX models.
func NewCache(optFns ...func(o *CacheOptions)) *Cache {
	opts := CacheOptions{
		LoadFunc: loadONNXModel,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Cache{
		models: make(map[string]Model),
		load:   opts.LoadFunc,
	}
}

// WithLoadFunc overrides the model constructor.
func WithLoadFunc(fn LoadFunc) func(o *CacheOptions) {
	return func(o *CacheOptions) {
		o.LoadFunc = fn
	}
}

// GetOrLoad returns the cached model for name, loading it on first use.
// The check is double-locked: a fast read path, then a write-locked
// re-check so exactly one caller performs the load.
func (c *Cache) GetOrLoad(ctx context.Context, name string) (Model, error) {
	c.mu.RLock()
	m, ok := c.models[name]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.models[name]; ok {
		return m, nil
	}

	spec, err := LookupSpec(name)
	if err != nil {
		return nil, err
	}

	m, err = c.load(ctx, spec)
	if err != nil {
		return nil, &ModelUnavailableError{Model: name, Err: err}
	}

	c.models[name] = m
	return m, nil
}

// Len returns the number of loaded models.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

var (
	defaultCacheOnce sync.Once
	defaultCache     *Cache
)

// DefaultCache returns the process-wide model cache.
func DefaultCache() *Cache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewCache()
	})
	return defaultCache
}
