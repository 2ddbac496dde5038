package docidx

import (
	"context"
	"fmt"

	"github.com/hupe1980/docidx/index"
)

// Batch is the ingestion boundary contract: parallel document ids and text
// chunks produced by upstream readers.
type Batch struct {
	IDs   []int64
	Texts []string
}

// Len returns the number of documents in the batch.
func (b Batch) Len() int {
	return len(b.IDs)
}

// Validate checks the parallel-slice invariants without touching any model
// or index.
func (b Batch) Validate() error {
	if len(b.IDs) != len(b.Texts) {
		return index.ErrLengthMismatch
	}

	seen := make(map[int64]struct{}, len(b.IDs))
	for _, id := range b.IDs {
		if _, ok := seen[id]; ok {
			return &index.ErrDuplicateID{ID: id}
		}
		seen[id] = struct{}{}
	}

	for i, text := range b.Texts {
		if text == "" {
			return fmt.Errorf("docidx: empty text at position %d", i)
		}
	}
	return nil
}

// AddBatch validates and inserts a batch.
func (ix *Indexer) AddBatch(ctx context.Context, b Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return ix.Add(ctx, b.IDs, b.Texts)
}
