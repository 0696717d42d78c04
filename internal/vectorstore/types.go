// Package vectorstore provides semantic chunk storage and cosine-similarity
// search (§4.7), with a persistent HNSW-backed implementation and an
// in-memory fallback sharing the same contract.
package vectorstore

import (
	"context"
	"fmt"
)

// Document is a chunk queued for vector-store insertion, carrying enough
// metadata to reconstruct a RetrievalResult without a second lookup.
type Document struct {
	ID          string
	NotePath    string
	NoteTitle   string
	Content     string
	ChunkIndex  int
	StartOffset int
	EndOffset   int
	HasHeader   bool
	Vector      []float32
}

// Result is a single vector-search hit.
type Result struct {
	ID       string
	Score    float32
	Metadata Document
}

// Config configures a vector store's HNSW parameters (§4.7, §4.5 defaults
// mirrored in internal/config).
type Config struct {
	Dimensions     int
	M              int
	EfConstruction int
	EfSearch       int
}

// Store provides semantic search over embedded note chunks.
type Store interface {
	// Add upserts documents by ID; two documents sharing an ID collapse to
	// the last write.
	Add(ctx context.Context, docs []Document) error

	// Search returns the topK nearest neighbors to queryVector by cosine
	// similarity, scores mapped to [0,1] where the backend reports
	// distances (§4.7).
	Search(ctx context.Context, queryVector []float32, topK int) ([]Result, error)

	// Delete removes documents by ID.
	Delete(ctx context.Context, ids []string) error

	// DeleteByNotePath atomically removes every document belonging to a
	// note, with no partial visibility to concurrent Search calls.
	DeleteByNotePath(ctx context.Context, notePath string) error

	// Clear removes every document.
	Clear(ctx context.Context) error

	// Count returns the number of documents currently stored.
	Count() int

	// AllDocuments returns every stored document's metadata, used by the
	// indexer's consistency checks.
	AllDocuments() []Document

	// Save persists the store to path. A no-op for pure in-memory stores.
	Save(path string) error

	// Load restores the store from path.
	Load(path string) error

	Close() error
}

// ErrDimensionMismatch indicates a vector whose length does not match the
// store's configured dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (reindex required)", e.Expected, e.Got)
}
