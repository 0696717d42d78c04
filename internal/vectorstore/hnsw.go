package vectorstore

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	"github.com/vaultrag/core/internal/errors"
)

// HNSWStore implements Store using coder/hnsw, a pure-Go HNSW
// implementation, avoiding a CGO dependency for the persistent backend.
type HNSWStore struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config Config

	idMap   map[string]uint64
	keyMap  map[uint64]string
	docs    map[string]Document
	nextKey uint64

	closed bool
}

type hnswMetadata struct {
	IDMap   map[string]uint64
	Docs    map[string]Document
	NextKey uint64
	Config  Config
}

// NewHNSWStore creates an HNSW-backed vector store.
func NewHNSWStore(cfg Config) (*HNSWStore, error) {
	if cfg.M == 0 {
		cfg.M = 32
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25

	return &HNSWStore{
		graph:   graph,
		config:  cfg,
		idMap:   make(map[string]uint64),
		keyMap:  make(map[uint64]string),
		docs:    make(map[string]Document),
		nextKey: 0,
	}, nil
}

var _ Store = (*HNSWStore)(nil)

// Add inserts or replaces documents by ID (§4.7 "add upserts by document
// id; two documents with the same id collapse to the last write").
func (s *HNSWStore) Add(ctx context.Context, docs []Document) error {
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
		// Lazy deletion on overwrite: coder/hnsw does not support removing
		// the last remaining node cleanly, so stale keys are orphaned
		// rather than deleted from the graph.
		if existingKey, exists := s.idMap[doc.ID]; exists {
			delete(s.keyMap, existingKey)
		}

		key := s.nextKey
		s.nextKey++

		vec := make([]float32, len(doc.Vector))
		copy(vec, doc.Vector)
		normalizeInPlace(vec)

		s.graph.Add(hnsw.MakeNode(key, vec))

		s.idMap[doc.ID] = key
		s.keyMap[key] = doc.ID
		s.docs[doc.ID] = doc
	}

	return nil
}

// Search returns the topK nearest documents to queryVector by cosine
// similarity.
func (s *HNSWStore) Search(ctx context.Context, queryVector []float32, topK int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("vector store is closed")
	}
	if len(queryVector) != s.config.Dimensions {
		return nil, ErrDimensionMismatch{Expected: s.config.Dimensions, Got: len(queryVector)}
	}
	if s.graph.Len() == 0 {
		return []Result{}, nil
	}

	query := make([]float32, len(queryVector))
	copy(query, queryVector)
	normalizeInPlace(query)

	nodes := s.graph.Search(query, topK)

	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		id, exists := s.keyMap[node.Key]
		if !exists {
			continue // orphaned by lazy deletion
		}

		distance := s.graph.Distance(query, node.Value)
		results = append(results, Result{
			ID:       id,
			Score:    1.0 - distance/2.0,
			Metadata: s.docs[id],
		})
	}

	return results, nil
}

// Delete removes documents by ID.
func (s *HNSWStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for _, id := range ids {
		if key, exists := s.idMap[id]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, id)
			delete(s.docs, id)
		}
	}

	return nil
}

// DeleteByNotePath removes every document belonging to a note. Holding the
// write lock for the whole scan-and-delete gives callers the atomicity
// §4.7 requires: no Search call observes a partially-removed note.
func (s *HNSWStore) DeleteByNotePath(ctx context.Context, notePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	for id, doc := range s.docs {
		if doc.NotePath != notePath {
			continue
		}
		if key, exists := s.idMap[id]; exists {
			delete(s.keyMap, key)
			delete(s.idMap, id)
		}
		delete(s.docs, id)
	}

	return nil
}

// Clear removes all documents.
func (s *HNSWStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = s.config.M
	graph.EfSearch = s.config.EfSearch
	graph.Ml = 0.25

	s.graph = graph
	s.idMap = make(map[string]uint64)
	s.keyMap = make(map[uint64]string)
	s.docs = make(map[string]Document)
	s.nextKey = 0

	return nil
}

// Count returns the number of documents currently stored.
func (s *HNSWStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}
	return len(s.idMap)
}

// AllDocuments returns every stored document's metadata.
func (s *HNSWStore) AllDocuments() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs
}

// Save persists the graph and ID/document mappings to path, atomically via
// temp-file-then-rename.
func (s *HNSWStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.IOErrorf(err, "failed to create vector store directory %s", dir)
	}

	tmpIndexPath := path + ".tmp"
	file, err := os.Create(tmpIndexPath)
	if err != nil {
		return errors.IOErrorf(err, "failed to create vector store file %s", tmpIndexPath)
	}

	if err := s.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpIndexPath)
		return errors.IOErrorf(err, "failed to export HNSW graph")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpIndexPath)
		return errors.IOErrorf(err, "failed to close vector store file")
	}
	if err := os.Rename(tmpIndexPath, path); err != nil {
		_ = os.Remove(tmpIndexPath)
		return errors.IOErrorf(err, "failed to finalize vector store file")
	}

	return s.saveMetadata(path + ".meta")
}

func (s *HNSWStore) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return errors.IOErrorf(err, "failed to create vector store metadata file")
	}

	meta := hnswMetadata{IDMap: s.idMap, Docs: s.docs, NextKey: s.nextKey, Config: s.config}

	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close temp metadata file during cleanup", slog.String("error", closeErr.Error()))
		}
		_ = os.Remove(tmpPath)
		return errors.IOErrorf(err, "failed to encode vector store metadata")
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.IOErrorf(err, "failed to close vector store metadata file")
	}

	return os.Rename(tmpPath, path)
}

// Load restores the store from path, replacing in-memory state.
func (s *HNSWStore) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("vector store is closed")
	}

	if err := s.loadMetadata(path + ".meta"); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.IOErrorf(err, "failed to open vector store file %s", path)
	}
	defer func() { _ = file.Close() }()

	if err := s.graph.Import(bufio.NewReader(file)); err != nil {
		return errors.CorruptionErrorf(err, "failed to import HNSW graph from %s", path)
	}

	return nil
}

func (s *HNSWStore) loadMetadata(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.IOErrorf(err, "failed to open vector store metadata file %s", path)
	}
	defer func() { _ = file.Close() }()

	var meta hnswMetadata
	if err := gob.NewDecoder(file).Decode(&meta); err != nil {
		return errors.CorruptionErrorf(err, "failed to decode vector store metadata")
	}

	s.idMap = meta.IDMap
	s.docs = meta.Docs
	s.keyMap = make(map[uint64]string, len(meta.IDMap))
	s.nextKey = meta.NextKey
	s.config = meta.Config

	for id, key := range s.idMap {
		s.keyMap[key] = id
	}

	return nil
}

// Close releases resources.
func (s *HNSWStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.graph = nil
	return nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}
