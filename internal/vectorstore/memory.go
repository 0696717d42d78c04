package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is a brute-force in-memory Store, sharing HNSWStore's
// semantics exactly, used for tests and cold starts where no persistent
// directory is available (§4.7).
type MemoryStore struct {
	mu     sync.RWMutex
	config Config
	docs   map[string]Document
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory vector store.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{config: cfg, docs: make(map[string]Document)}
}

// Add upserts documents by ID.
func (s *MemoryStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, doc := range docs {
		if len(doc.Vector) != s.config.Dimensions {
			return ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(doc.Vector)}
		}
	}

	for _, doc := range docs {
		vec := make([]float32, len(doc.Vector))
		copy(vec, doc.Vector)
		normalizeInPlace(vec)
		doc.Vector = vec
		s.docs[doc.ID] = doc
	}

	return nil
}

// Search performs brute-force cosine similarity search.
func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, topK int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(queryVector) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(queryVector)}
	}
	if len(s.docs) == 0 {
		return []Result{}, nil
	}

	query := make([]float32, len(queryVector))
	copy(query, queryVector)
	normalizeInPlace(query)

	results := make([]Result, 0, len(s.docs))
	for id, doc := range s.docs {
		results = append(results, Result{
			ID:       id,
			Score:    cosineSimilarity(query, doc.Vector),
			Metadata: doc,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Delete removes documents by ID.
func (s *MemoryStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

// DeleteByNotePath atomically removes every document belonging to a note.
func (s *MemoryStore) DeleteByNotePath(ctx context.Context, notePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	for id, doc := range s.docs {
		if doc.NotePath == notePath {
			delete(s.docs, id)
		}
	}
	return nil
}

// Clear removes all documents.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("vector store is closed")
	}
	s.docs = make(map[string]Document)
	return nil
}

// Count returns the number of documents currently stored.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// AllDocuments returns every stored document's metadata.
func (s *MemoryStore) AllDocuments() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs
}

// Save is a no-op; the in-memory store has no persistent representation.
func (s *MemoryStore) Save(path string) error { return nil }

// Load is a no-op; the in-memory store has no persistent representation.
func (s *MemoryStore) Load(path string) error { return nil }

// Close releases resources.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
