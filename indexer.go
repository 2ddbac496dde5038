package docidx

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/docidx/embedding"
	"github.com/hupe1980/docidx/index"
	"github.com/hupe1980/docidx/persistence"
)

// PaddingID fills result rows when a search asks for more neighbors than
// the index holds. Callers can rely on every result slice having exactly k
// rows.
const PaddingID int64 = -1

// Hit is one ranked result of a text search.
type Hit struct {
	// ID is the external document identifier, or PaddingID for filler rows.
	ID int64

	// Distance is the squared L2 distance, or +Inf for filler rows.
	Distance float32
}

// Indexer couples an embedding provider with a vector index: texts go in,
// ranked document ids come out. The capability of the underlying index
// (writable or read-only memory-mapped) is surfaced unchanged.
type Indexer struct {
	name     string
	provider *embedding.Provider
	index    index.Index
	logger   *Logger
}

// Name returns the catalog name of the indexer.
func (ix *Indexer) Name() string {
	return ix.name
}

// ModelName returns the name of the bound embedding model.
func (ix *Indexer) ModelName() string {
	return ix.provider.ModelName()
}

// Mode returns the capability flag of the underlying index.
func (ix *Indexer) Mode() index.Mode {
	return ix.index.Mode()
}

// Size returns the number of live documents.
func (ix *Indexer) Size() int {
	return ix.index.Count()
}

// Dimension returns the vector dimensionality of the underlying index.
func (ix *Indexer) Dimension() int {
	return ix.index.Dimension()
}

// Index exposes the underlying vector index for callers that already hold
// vectors.
func (ix *Indexer) Index() index.Index {
	return ix.index
}

// Add embeds the texts and inserts them under the given ids. The capability
// check runs before any embedding work: a read-only indexer fails fast
// without touching the model.
func (ix *Indexer) Add(ctx context.Context, ids []int64, texts []string) error {
	if ix.index.Mode() != index.ModeWritable {
		ix.logger.LogAdd(ctx, ix.name, len(ids), index.ErrReadOnly)
		return index.ErrReadOnly
	}
	if len(ids) != len(texts) {
		return index.ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	vectors, err := ix.provider.Embed(ctx, texts)
	if err != nil {
		ix.logger.LogAdd(ctx, ix.name, len(ids), err)
		return err
	}

	if err := ix.index.Add(ids, vectors); err != nil {
		ix.logger.LogAdd(ctx, ix.name, len(ids), err)
		return err
	}

	ix.logger.LogAdd(ctx, ix.name, len(ids), nil)
	return nil
}

// Remove deletes the documents with the given ids. Missing ids are ignored.
// Fails fast on a read-only indexer.
func (ix *Indexer) Remove(ctx context.Context, ids []int64) error {
	err := ix.index.Remove(ids)
	ix.logger.LogRemove(ctx, ix.name, len(ids), err)
	return err
}

// Search embeds the query text and returns exactly k hits ordered by
// ascending distance. When fewer than k documents exist, the tail is padded
// with PaddingID rows at +Inf distance.
func (ix *Indexer) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	vector, err := ix.provider.EmbedOne(ctx, query)
	if err != nil {
		ix.logger.LogSearch(ctx, ix.name, k, 0, err)
		return nil, err
	}

	results, err := ix.index.Search(vector, k)
	if err != nil {
		ix.logger.LogSearch(ctx, ix.name, k, 0, err)
		return nil, err
	}

	hits := make([]Hit, k)
	for i := range hits {
		if i < len(results) {
			hits[i] = Hit{ID: results[i].ID, Distance: results[i].Distance}
		} else {
			hits[i] = Hit{ID: PaddingID, Distance: float32(math.Inf(1))}
		}
	}

	ix.logger.LogSearch(ctx, ix.name, k, len(results), nil)
	return hits, nil
}

// WriteTo serializes the underlying index in the binary artifact format.
func (ix *Indexer) WriteTo(w io.Writer) (int64, error) {
	wt, ok := ix.index.(io.WriterTo)
	if !ok {
		return 0, fmt.Errorf("docidx: index type does not support serialization")
	}
	return wt.WriteTo(w)
}

// Serialize returns the raw blob representation using the given codec.
func (ix *Indexer) Serialize(c persistence.Compression) ([]byte, error) {
	return persistence.EncodeBlob(ix, c)
}

// SaveToFile writes the self-contained file artifact atomically.
func (ix *Indexer) SaveToFile(filename string) error {
	return persistence.SaveToFile(filename, func(w io.Writer) error {
		_, err := ix.WriteTo(w)
		return err
	})
}

// Close releases the underlying index resources.
func (ix *Indexer) Close() error {
	return ix.index.Close()
}
