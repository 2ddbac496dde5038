// Package docidx provides text-to-vector document indexing: sentence
// transformer embeddings, exact flat nearest-neighbor search, and durable
// artifacts that load either fully into memory or read-only over a memory
// mapping.
//
// Indexers come from a closed catalog of names; each name binds an index
// layout to an embedding model. Artifacts are stored in a byte store
// (local filesystem, S3, or MinIO) as compressed blobs, optionally paired
// with a self-contained file for the memory-mapped read path.
//
// Basic usage:
//
//	store := blobstore.NewLocalStore("/var/lib/docidx")
//	catalog := docidx.NewCatalog(store)
//
//	ix, err := catalog.Create(ctx, "papers", docidx.IndexerFlatL2MiniLM)
//	if err != nil { ... }
//
//	err = ix.Add(ctx, []int64{1, 2}, []string{"first chunk", "second chunk"})
//	hits, err := ix.Search(ctx, "query text", 5)
//
//	err = catalog.Save(ctx, "papers", ix)
package docidx
