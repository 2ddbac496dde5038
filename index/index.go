// Package index defines the contract for identifier-mapped vector indexes.
package index

import (
	"errors"
	"fmt"
)

// Mode is the capability flag of an index handle. It is fixed at
// construction and checked before any mutating operation; writability is
// never inferred from the shape of the backing structure.
type Mode int

const (
	// ModeWritable allows Add and Remove.
	ModeWritable Mode = iota
	// ModeReadOnlyMapped marks an index whose vector data is memory-mapped
	// and owned by the operating system page cache. Mutations fail fast.
	ModeReadOnlyMapped
)

func (m Mode) String() string {
	switch m {
	case ModeWritable:
		return "Writable"
	case ModeReadOnlyMapped:
		return "ReadOnlyMapped"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

var (
	// ErrReadOnly is returned when Add or Remove is attempted against a
	// read-only memory-mapped index.
	ErrReadOnly = errors.New("index: read-only memory-mapped index cannot be modified")

	// ErrInvalidK is returned when a search is requested with k <= 0.
	ErrInvalidK = errors.New("index: k must be positive")

	// ErrLengthMismatch is returned when parallel id/vector slices differ
	// in length.
	ErrLengthMismatch = errors.New("index: ids and vectors must have equal length")
)

// ErrDimensionMismatch indicates a vector or query whose length differs from
// the index dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrDuplicateID indicates an insertion with an id that already exists.
// Duplicate insertion is rejected, never silently overwritten.
type ErrDuplicateID struct {
	ID int64
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate id: %d", e.ID)
}

// SearchResult is one ranked hit of a nearest-neighbor search.
type SearchResult struct {
	// ID is the external identifier of the matched record.
	ID int64

	// Distance is the squared L2 distance between the query and the record.
	Distance float32
}

// Index is an identifier-mapped vector index.
//
// A single instance is not safe for concurrent mutation; callers serialize
// Add/Remove. Concurrent Search calls against a quiescent index are safe.
type Index interface {
	// Add inserts records id[i] -> vector[i]. All ids must be new; a
	// duplicate rejects the whole batch before any record is inserted.
	// Fails with ErrReadOnly on a memory-mapped index.
	Add(ids []int64, vectors [][]float32) error

	// Remove deletes the records with the given ids. Missing ids are
	// ignored. Fails with ErrReadOnly on a memory-mapped index.
	Remove(ids []int64) error

	// Search returns the k records nearest to query by ascending squared
	// L2 distance, ties broken by insertion order. If fewer than k records
	// exist, all of them are returned.
	Search(query []float32, k int) ([]SearchResult, error)

	// Count returns the number of live records. Available in every mode.
	Count() int

	// Dimension returns the fixed vector dimensionality.
	Dimension() int

	// Mode returns the capability flag set at construction.
	Mode() Mode

	// Close releases backing resources (the mapping, for mapped indexes).
	Close() error
}
