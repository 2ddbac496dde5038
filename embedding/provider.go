package embedding

import (
	"context"
	"fmt"
	"sync"
)

// Provider binds a model name to the shared cache and resolves the model
// lazily. Construction never touches the model; the first Embed or
// Dimension call does.
type Provider struct {
	name  string
	cache *Cache

	mu  sync.Mutex
	dim int // 0 until first resolved
}

// ProviderOptions contains configuration options for a Provider.
type ProviderOptions struct {
	// Cache is the model cache to resolve through. Defaults to the
	// process-wide cache.
	Cache *Cache
}

// NewProvider creates a provider for the named model. The name is validated
// against the supported model table; resolution of the model itself is
// deferred.
func NewProvider(name string, optFns ...func(o *ProviderOptions)) (*Provider, error) {
	opts := ProviderOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if _, err := LookupSpec(name); err != nil {
		return nil, err
	}

	cache := opts.Cache
	if cache == nil {
		cache = DefaultCache()
	}

	return &Provider{name: name, cache: cache}, nil
}

// WithCache overrides the model cache used for resolution.
func WithCache(c *Cache) func(o *ProviderOptions) {
	return func(o *ProviderOptions) {
		o.Cache = c
	}
}

// ModelName returns the bound model name.
func (p *Provider) ModelName() string {
	return p.name
}

// Embed encodes the texts through the bound model, resolving it on first
// use.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m, err := p.cache.GetOrLoad(ctx, p.name)
	if err != nil {
		return nil, err
	}

	vectors, err := m.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	p.rememberDimension(m.Dimension())
	return vectors, nil
}

// EmbedOne encodes a single text.
func (p *Provider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding: expected 1 vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

// Dimension returns the output dimensionality of the bound model. The value
// is discovered on first call and cached; repeated calls never re-resolve.
func (p *Provider) Dimension(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.dim > 0 {
		dim := p.dim
		p.mu.Unlock()
		return dim, nil
	}
	p.mu.Unlock()

	m, err := p.cache.GetOrLoad(ctx, p.name)
	if err != nil {
		return 0, err
	}

	dim := m.Dimension()
	p.rememberDimension(dim)
	return dim, nil
}

func (p *Provider) rememberDimension(dim int) {
	p.mu.Lock()
	if p.dim == 0 {
		p.dim = dim
	}
	p.mu.Unlock()
}
