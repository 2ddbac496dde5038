package docidx

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/docidx/blobstore"
	"github.com/hupe1980/docidx/embedding"
	"github.com/hupe1980/docidx/index/flat"
	"github.com/hupe1980/docidx/persistence"
)

// Indexer catalog names. The set is closed: names are persisted in artifact
// paths, so every accepted name must stay resolvable forever.
const (
	IndexerFlatL2MiniLM     = "indexer_FlatL2__embeddings_all-MiniLM-L6-v2"
	IndexerFlatL2MPNet      = "indexer_FlatL2__embeddings_all-mpnet-base-v2"
	IndexerFlatL2DistilBERT = "indexer_FlatL2__embeddings_multi-qa-distilbert-cos-v1"
)

// Recipe describes how to build one catalog indexer.
type Recipe struct {
	// Name is the catalog name.
	Name string

	// ModelName is the embedding model the indexer is bound to.
	ModelName string
}

var recipes = map[string]Recipe{
	IndexerFlatL2MiniLM: {
		Name:      IndexerFlatL2MiniLM,
		ModelName: "all-MiniLM-L6-v2",
	},
	IndexerFlatL2MPNet: {
		Name:      IndexerFlatL2MPNet,
		ModelName: "all-mpnet-base-v2",
	},
	IndexerFlatL2DistilBERT: {
		Name:      IndexerFlatL2DistilBERT,
		ModelName: "multi-qa-distilbert-cos-v1",
	},
}

// Resolve maps an indexer name to its recipe. Unknown names fail here,
// before any model or storage work starts.
func Resolve(name string) (Recipe, error) {
	r, ok := recipes[name]
	if !ok {
		return Recipe{}, &UnknownIndexerError{Name: name}
	}
	return r, nil
}

// IndexerNames returns the catalog names in no particular order.
func IndexerNames() []string {
	names := make([]string, 0, len(recipes))
	for name := range recipes {
		names = append(names, name)
	}
	return names
}

// BlobKey returns the byte-store key of an indexer artifact within a
// collection.
func BlobKey(collection, name string) string {
	return path.Join(collection, "indexes", name, "indexer")
}

// FileName is the base name of the self-contained file artifact.
const FileName = "indexer.vec"

// Catalog creates, persists and loads indexers against a blob store and an
// optional local file root for the memory-mapped tier.
type Catalog struct {
	store       blobstore.Store
	fileRoot    string
	cache       *embedding.Cache
	compression persistence.Compression
	logger      *Logger
}

// CatalogOptions contains configuration options for a Catalog.
type CatalogOptions struct {
	// FileRoot is the directory holding self-contained file artifacts for
	// memory-mapped loads. Empty disables the mapped tier unless the store
	// is a LocalStore, whose root is used by default.
	FileRoot string

	// ModelCache is the embedding model cache. Defaults to the
	// process-wide cache.
	ModelCache *embedding.Cache

	// Compression selects the blob codec. Defaults to ZSTD.
	Compression persistence.Compression

	// Logger is used for operation logging. Defaults to a noop logger.
	Logger *Logger
}

// NewCatalog creates a catalog over the given blob store.
func NewCatalog(store blobstore.Store, optFns ...func(o *CatalogOptions)) *Catalog {
	opts := CatalogOptions{
		Compression: persistence.CompressionZSTD,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.FileRoot == "" {
		if local, ok := store.(*blobstore.LocalStore); ok {
			opts.FileRoot = local.Root()
		}
	}
	if opts.ModelCache == nil {
		opts.ModelCache = embedding.DefaultCache()
	}
	if opts.Logger == nil {
		opts.Logger = NoopLogger()
	}

	return &Catalog{
		store:       store,
		fileRoot:    opts.FileRoot,
		cache:       opts.ModelCache,
		compression: opts.Compression,
		logger:      opts.Logger,
	}
}

// WithFileRoot sets the directory for memory-mappable file artifacts.
func WithFileRoot(dir string) func(o *CatalogOptions) {
	return func(o *CatalogOptions) {
		o.FileRoot = dir
	}
}

// WithModelCache overrides the embedding model cache.
func WithModelCache(c *embedding.Cache) func(o *CatalogOptions) {
	return func(o *CatalogOptions) {
		o.ModelCache = c
	}
}

// WithCompression selects the blob codec.
func WithCompression(c persistence.Compression) func(o *CatalogOptions) {
	return func(o *CatalogOptions) {
		o.Compression = c
	}
}

// WithLogger sets the operation logger.
func WithLogger(l *Logger) func(o *CatalogOptions) {
	return func(o *CatalogOptions) {
		o.Logger = l
	}
}

// FilePath returns the local path of the mappable file artifact, or empty
// when the mapped tier is disabled.
func (c *Catalog) FilePath(collection, name string) string {
	if c.fileRoot == "" {
		return ""
	}
	return filepath.Join(c.fileRoot, filepath.FromSlash(BlobKey(collection, name))+".vec")
}

// Create builds a new empty writable indexer. The embedding model is
// resolved to discover the vector dimensionality, so the first Create for a
// model pays its load cost.
func (c *Catalog) Create(ctx context.Context, collection, name string) (*Indexer, error) {
	recipe, err := Resolve(name)
	if err != nil {
		return nil, err
	}

	provider, err := embedding.NewProvider(recipe.ModelName, embedding.WithCache(c.cache))
	if err != nil {
		return nil, err
	}

	dim, err := provider.Dimension(ctx)
	if err != nil {
		return nil, err
	}

	idx, err := flat.New(flat.WithDimension(dim))
	if err != nil {
		return nil, err
	}

	return &Indexer{
		name:     name,
		provider: provider,
		index:    idx,
		logger:   c.logger,
	}, nil
}

// LoadIndexerOptions carries load preferences.
type LoadIndexerOptions struct {
	// ReadOnly declares that the caller will not mutate the indexer.
	ReadOnly bool

	// PreferMmap requests the memory-mapped tier when possible. Only
	// honored together with ReadOnly.
	PreferMmap bool
}

// Load resolves and loads an indexer from storage. Unknown names fail
// before any I/O. The memory-mapped tier is tried first for read-only
// loads when a file artifact exists; otherwise the raw blob is read from
// the store and deserialized fully.
func (c *Catalog) Load(ctx context.Context, collection, name string, optFns ...func(o *LoadIndexerOptions)) (*Indexer, error) {
	recipe, err := Resolve(name)
	if err != nil {
		return nil, err
	}

	var opts LoadIndexerOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	provider, err := embedding.NewProvider(recipe.ModelName, embedding.WithCache(c.cache))
	if err != nil {
		return nil, err
	}

	idx, source, err := persistence.Load(ctx, c.FilePath(collection, name), c.store, BlobKey(collection, name), persistence.LoadOptions{
		ReadOnly:   opts.ReadOnly,
		PreferMmap: opts.PreferMmap,
	})
	if err != nil {
		c.logger.LogLoad(ctx, name, "", err)
		return nil, err
	}

	c.logger.LogLoad(ctx, name, source.String(), nil)

	return &Indexer{
		name:     name,
		provider: provider,
		index:    idx,
		logger:   c.logger,
	}, nil
}

// WithReadOnly declares a read-only load.
func WithReadOnly() func(o *LoadIndexerOptions) {
	return func(o *LoadIndexerOptions) {
		o.ReadOnly = true
	}
}

// WithPreferMmap requests the memory-mapped tier.
func WithPreferMmap() func(o *LoadIndexerOptions) {
	return func(o *LoadIndexerOptions) {
		o.PreferMmap = true
	}
}

// Save persists the indexer into the collection: the compressed raw blob
// always goes to the byte store, and when the mapped tier is enabled the
// self-contained file artifact is written alongside. The two writes are
// independent and run concurrently.
func (c *Catalog) Save(ctx context.Context, collection string, ix *Indexer) error {
	blobKey := BlobKey(collection, ix.Name())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		blob, err := persistence.EncodeBlob(ix, c.compression)
		if err != nil {
			return err
		}
		return c.store.Put(gctx, blobKey, blob)
	})

	if filePath := c.FilePath(collection, ix.Name()); filePath != "" {
		g.Go(func() error {
			return persistence.SaveToFile(filePath, func(w io.Writer) error {
				_, err := ix.WriteTo(w)
				return err
			})
		})
	}

	err := g.Wait()
	c.logger.LogSave(ctx, ix.Name(), blobKey, err)
	return err
}

// Delete removes the persisted artifacts of an indexer from a collection.
// Missing artifacts are ignored.
func (c *Catalog) Delete(ctx context.Context, collection, name string) error {
	if _, err := Resolve(name); err != nil {
		return err
	}

	if err := c.store.Delete(ctx, BlobKey(collection, name)); err != nil {
		return err
	}

	if filePath := c.FilePath(collection, name); filePath != "" {
		if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
