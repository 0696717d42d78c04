package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/vaultrag/core/internal/vectorstore"
)

// InconsistencyType categorizes a detected cross-store mismatch (§7
// Corruption).
type InconsistencyType int

const (
	// InconsistencyOrphanVector indicates a vector-store chunk with no
	// corresponding metadata entry for its note.
	InconsistencyOrphanVector InconsistencyType = iota
	// InconsistencyMissingVector indicates a metadata entry whose chunk
	// count disagrees with what the vector store actually holds for that
	// note (including zero, i.e. entirely missing).
	InconsistencyMissingVector
)

func (t InconsistencyType) String() string {
	switch t {
	case InconsistencyOrphanVector:
		return "orphan_vector"
	case InconsistencyMissingVector:
		return "missing_vector"
	default:
		return "unknown"
	}
}

// Inconsistency is one detected mismatch between IndexMetadata and the
// vector store.
type Inconsistency struct {
	Type     InconsistencyType
	NotePath string
	Details  string
}

// CheckResult is the outcome of a consistency Check.
type CheckResult struct {
	Checked         int
	Inconsistencies []Inconsistency
	Duration        time.Duration
}

// ConsistencyChecker detects Corruption (§7): metadata entries whose
// recorded chunk count doesn't match the vector store, or vector-store
// chunks belonging to a note absent from metadata entirely. Either finding
// is reported through IsCorrupt; the checker does not re-index.
type ConsistencyChecker struct {
	meta  MetaStore
	store vectorstore.Store
}

// NewConsistencyChecker builds a checker over the given metadata and vector
// stores.
func NewConsistencyChecker(meta MetaStore, store vectorstore.Store) *ConsistencyChecker {
	return &ConsistencyChecker{meta: meta, store: store}
}

// Check scans both stores and reports any mismatches. It does not itself
// force a re-index; callers decide the propagation policy for IsCorrupt.
func (c *ConsistencyChecker) Check(_ context.Context) (*CheckResult, error) {
	start := time.Now()

	meta, err := c.meta.Load()
	if err != nil {
		return nil, err
	}
	if meta == nil {
		meta = newIndexMetadata()
	}

	vectorChunkCounts := make(map[string]int)
	for _, doc := range c.store.AllDocuments() {
		vectorChunkCounts[doc.NotePath]++
	}

	result := &CheckResult{Checked: len(meta.Notes) + len(vectorChunkCounts)}

	for path, count := range vectorChunkCounts {
		entry, known := meta.Notes[path]
		if !known {
			result.Inconsistencies = append(result.Inconsistencies, Inconsistency{
				Type:     InconsistencyOrphanVector,
				NotePath: path,
				Details:  fmt.Sprintf("%d chunks in vector store, no metadata entry", count),
			})
			continue
		}
		if entry.ChunkCount != count {
			result.Inconsistencies = append(result.Inconsistencies, Inconsistency{
				Type:     InconsistencyMissingVector,
				NotePath: path,
				Details:  fmt.Sprintf("metadata records %d chunks, vector store has %d", entry.ChunkCount, count),
			})
		}
	}

	for path, entry := range meta.Notes {
		if _, present := vectorChunkCounts[path]; !present && entry.ChunkCount > 0 {
			result.Inconsistencies = append(result.Inconsistencies, Inconsistency{
				Type:     InconsistencyMissingVector,
				NotePath: path,
				Details:  fmt.Sprintf("metadata records %d chunks, vector store has none", entry.ChunkCount),
			})
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// IsCorrupt reports whether a CheckResult contains any inconsistency,
// meaning the caller should force a full re-index (§7).
func (r *CheckResult) IsCorrupt() bool {
	return len(r.Inconsistencies) > 0
}
