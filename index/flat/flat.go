// Package flat provides an identifier-mapped flat index with exact
// squared-L2 search. Every query scans all stored vectors; there is no
// approximation and no quantization. Correctness over throughput is the
// design choice: intended corpora are document chunks, not billion-scale
// collections.
package flat

import (
	"fmt"
	"io"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/docidx/distance"
	"github.com/hupe1980/docidx/index"
	"github.com/hupe1980/docidx/internal/queue"
)

// Compile-time check to ensure Flat satisfies the index contract.
var _ index.Index = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all inserts and searches.
	Dimension int
}

// Flat is an identifier-mapped flat squared-L2 index.
//
// Rows are stored contiguously in insertion order. Removal marks the row as
// a tombstone; tombstones are skipped during search and compacted away on
// serialization. In memory-mapped mode the vector rows alias the mapping
// and the index is immutable for the lifetime of the handle.
type Flat struct {
	mu      sync.RWMutex
	mode    index.Mode
	dim     int
	ids     []int64         // external id per row, including tombstoned rows
	vecs    []float32       // row-major, len == len(ids)*dim
	byID    map[int64]int   // external id -> row, live rows only
	deleted *roaring.Bitmap // tombstoned row positions
	mapping io.Closer       // owned mapping in ModeReadOnlyMapped
}

// New creates a new empty, writable flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("flat: invalid dimension: %d", opts.Dimension)
	}

	return &Flat{
		mode:    index.ModeWritable,
		dim:     opts.Dimension,
		byID:    make(map[int64]int),
		deleted: roaring.New(),
	}, nil
}

// WithDimension sets the vector dimensionality.
func WithDimension(dim int) func(o *Options) {
	return func(o *Options) {
		o.Dimension = dim
	}
}

// Mode returns the capability flag set at construction.
func (f *Flat) Mode() index.Mode {
	return f.mode
}

// Dimension returns the fixed vector dimensionality.
func (f *Flat) Dimension() int {
	return f.dim
}

// Count returns the number of live records.
func (f *Flat) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.byID)
}

// Add inserts records id[i] -> vector[i]. The whole batch is validated
// before any row is appended: a dimension mismatch or a duplicate id (both
// against the index and within the batch) rejects the batch atomically.
func (f *Flat) Add(ids []int64, vectors [][]float32) error {
	if f.mode != index.ModeWritable {
		return index.ErrReadOnly
	}
	if len(ids) != len(vectors) {
		return index.ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[int64]struct{}, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != f.dim {
			return &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(vectors[i])}
		}
		if _, ok := f.byID[id]; ok {
			return &index.ErrDuplicateID{ID: id}
		}
		if _, ok := seen[id]; ok {
			return &index.ErrDuplicateID{ID: id}
		}
		seen[id] = struct{}{}
	}

	for i, id := range ids {
		row := len(f.ids)
		f.ids = append(f.ids, id)
		f.vecs = append(f.vecs, vectors[i]...)
		f.byID[id] = row
	}
	return nil
}

// Remove deletes the records with the given ids by tombstoning their rows.
// Removing a nonexistent id is a no-op.
func (f *Flat) Remove(ids []int64) error {
	if f.mode != index.ModeWritable {
		return index.ErrReadOnly
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		row, ok := f.byID[id]
		if !ok {
			continue
		}
		f.deleted.Add(uint32(row))
		delete(f.byID, id)
	}
	return nil
}

// Search performs an exact brute-force scan and returns the k records
// nearest to query, ordered by ascending squared L2 distance with ties
// broken by insertion order. If fewer than k live records exist, all of
// them are returned.
func (f *Flat) Search(query []float32, k int) ([]index.SearchResult, error) {
	if k <= 0 {
		return nil, index.ErrInvalidK
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(query) != f.dim {
		return nil, &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(query)}
	}

	if k > len(f.byID) {
		k = len(f.byID)
	}
	top := queue.NewTopK(k)

	for row := range f.ids {
		if f.deleted.Contains(uint32(row)) {
			continue
		}
		d := distance.SquaredL2(query, f.row(row))
		top.Push(queue.Item{Row: row, Distance: d})
	}

	items := top.Sorted()
	results := make([]index.SearchResult, len(items))
	for i, it := range items {
		results[i] = index.SearchResult{ID: f.ids[it.Row], Distance: it.Distance}
	}
	return results, nil
}

// Close releases the backing mapping in memory-mapped mode. It is a no-op
// for in-memory indexes.
func (f *Flat) Close() error {
	if f.mapping != nil {
		return f.mapping.Close()
	}
	return nil
}

// row returns the vector stored at the given row position. In mapped mode
// the slice aliases the mapping and must be treated as read-only.
func (f *Flat) row(row int) []float32 {
	return f.vecs[row*f.dim : (row+1)*f.dim]
}
