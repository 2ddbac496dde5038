package persistence

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/hupe1980/docidx/blobstore"
	"github.com/hupe1980/docidx/index"
	"github.com/hupe1980/docidx/internal/mmap"
)

// Source tags how an index was loaded. The fallback order is an explicit
// contract, not an incidental catch block.
type Source int

const (
	// SourceFileMapped means the index was opened read-only over a memory
	// mapping of the self-contained file artifact.
	SourceFileMapped Source = iota
	// SourceBlob means the raw blob was read from the byte store and fully
	// deserialized into a writable in-memory index.
	SourceBlob
)

func (s Source) String() string {
	switch s {
	case SourceFileMapped:
		return "FileMapped"
	case SourceBlob:
		return "Blob"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// LoadOptions carries the caller's load preferences.
type LoadOptions struct {
	// ReadOnly declares that the caller will not mutate the index.
	ReadOnly bool

	// PreferMmap requests the memory-mapped file path when possible.
	// Mapping avoids pulling large vector data into process memory when
	// only reads are needed.
	PreferMmap bool
}

// Load resolves an index from durable storage.
//
// Resolution order: if the caller prefers memory-mapping, is read-only, and
// the file artifact exists, the file is opened in mapped mode; a structural
// failure there releases the mapping and falls back to the raw blob. The
// blob is read from the byte store and deserialized fully into memory,
// yielding a writable index. When both tiers fail the blob error (wrapping
// the mapping failure, if any) propagates.
//
// filePath may be empty to disable the mapped tier.
func Load(ctx context.Context, filePath string, store blobstore.Store, blobKey string, opts LoadOptions) (index.Index, Source, error) {
	var mapErr error

	if opts.PreferMmap && opts.ReadOnly && filePath != "" {
		if _, err := os.Stat(filePath); err == nil {
			idx, err := loadMapped(filePath)
			if err == nil {
				return idx, SourceFileMapped, nil
			}
			mapErr = err
		}
	}

	data, err := blobstore.ReadAll(ctx, store, blobKey)
	if err != nil {
		if mapErr != nil {
			return nil, 0, fmt.Errorf("persistence: mapped open failed (%w) and blob read failed: %w", mapErr, err)
		}
		return nil, 0, fmt.Errorf("persistence: blob read failed: %w", err)
	}

	payload, err := DecodeBlob(data)
	if err != nil {
		return nil, 0, err
	}

	sr := NewSliceReader(payload)
	h, err := sr.ReadFileHeader()
	if err != nil {
		return nil, 0, err
	}

	loader, err := index.LookupBlobLoader(h.IndexType)
	if err != nil {
		return nil, 0, err
	}

	idx, err := loader(bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	return idx, SourceBlob, nil
}

// loadMapped opens the file artifact over a memory mapping. The mapping is
// released before returning an error so a failed attempt leaves no partial
// resources behind.
func loadMapped(path string) (index.Index, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	sr := NewSliceReader(m.Bytes())
	h, err := sr.ReadFileHeader()
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	loader, err := index.LookupMappedLoader(h.IndexType)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	idx, err := loader(m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return idx, nil
}
