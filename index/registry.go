package index

import (
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/docidx/internal/mmap"
)

// BlobLoaderFunc reconstructs an index by fully reading a serialized stream
// into process memory. The resulting index is writable.
type BlobLoaderFunc func(r io.Reader) (Index, error)

// MappedLoaderFunc reconstructs an index on top of an open mapping. On
// success the index takes ownership of the mapping and releases it in Close;
// on error the caller keeps ownership.
type MappedLoaderFunc func(m *mmap.Mapping) (Index, error)

var (
	registryMu    sync.RWMutex
	blobLoaders   = map[uint8]BlobLoaderFunc{}
	mappedLoaders = map[uint8]MappedLoaderFunc{}
)

// RegisterBlobLoader registers the blob deserializer for an index type.
// Implementations call this from init.
func RegisterBlobLoader(indexType uint8, fn BlobLoaderFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	blobLoaders[indexType] = fn
}

// RegisterMappedLoader registers the memory-mapped loader for an index type.
func RegisterMappedLoader(indexType uint8, fn MappedLoaderFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	mappedLoaders[indexType] = fn
}

// LookupBlobLoader returns the registered blob loader for an index type.
func LookupBlobLoader(indexType uint8) (BlobLoaderFunc, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := blobLoaders[indexType]
	if !ok {
		return nil, fmt.Errorf("index: no blob loader registered for index type %d", indexType)
	}
	return fn, nil
}

// LookupMappedLoader returns the registered mapped loader for an index type.
func LookupMappedLoader(indexType uint8) (MappedLoaderFunc, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := mappedLoaders[indexType]
	if !ok {
		return nil, fmt.Errorf("index: no mapped loader registered for index type %d", indexType)
	}
	return fn, nil
}
