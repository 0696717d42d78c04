package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/vaultrag/core/internal/errors"
)

// KeywordIndex is an optional bleve-backed side inverted index (§9 Open
// Question: "An implementer may optionally add a side inverted index").
// Prefilter returns candidate chunk IDs for a query; the retriever does not
// call it and scores keywords with BM25Corpus alone.
type KeywordIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

type keywordDoc struct {
	Content string `json:"content"`
}

// NewKeywordIndex opens or creates a bleve index at path. An empty path
// creates an in-memory index, useful for tests.
func NewKeywordIndex(path string) (*KeywordIndex, error) {
	mapping := bleve.NewIndexMapping()

	var idx bleve.Index
	var err error

	if path == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, errors.IOErrorf(mkErr, "failed to create keyword index directory")
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, errors.IOErrorf(err, "failed to open keyword index at %s", path)
	}

	return &KeywordIndex{index: idx}, nil
}

// Index adds or replaces documents keyed by chunk ID.
func (k *KeywordIndex) Index(ctx context.Context, docs map[string]string) error {
	if len(docs) == 0 {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return fmt.Errorf("keyword index is closed")
	}

	batch := k.index.NewBatch()
	for id, content := range docs {
		if err := batch.Index(id, keywordDoc{Content: content}); err != nil {
			return errors.IOErrorf(err, "failed to index document %s", id)
		}
	}
	return k.index.Batch(batch)
}

// Prefilter returns the IDs of documents whose content matches query,
// ranked by bleve's own score, to narrow the candidate set handed to
// BM25Corpus.
func (k *KeywordIndex) Prefilter(ctx context.Context, query string, limit int) ([]string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return nil, fmt.Errorf("keyword index is closed")
	}

	match := bleve.NewMatchQuery(query)
	match.SetField("content")

	req := bleve.NewSearchRequest(match)
	req.Size = limit

	result, err := k.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.IOErrorf(err, "keyword prefilter search failed")
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Delete removes documents by ID.
func (k *KeywordIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return fmt.Errorf("keyword index is closed")
	}

	batch := k.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return k.index.Batch(batch)
}

// Close closes the underlying bleve index.
func (k *KeywordIndex) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	return k.index.Close()
}
