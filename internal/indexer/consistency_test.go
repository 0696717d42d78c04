package indexer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultrag/core/internal/vectorstore"
)

func TestConsistencyCheckerFindsNoIssuesWhenInSync(t *testing.T) {
	store := vectorstore.NewMemoryStore(vectorstore.Config{Dimensions: 2})
	require.NoError(t, store.Add(context.Background(), []vectorstore.Document{
		{ID: "a#0", NotePath: "a.md", Vector: []float32{1, 0}},
		{ID: "a#1", NotePath: "a.md", Vector: []float32{0, 1}},
	}))

	meta := NewJSONMetaStore(filepath.Join(t.TempDir(), "index-meta.json"))
	m := newIndexMetadata()
	m.Notes["a.md"] = NoteEntry{NoteID: "id-a", ChunkCount: 2}
	require.NoError(t, meta.Save(m))

	checker := NewConsistencyChecker(meta, store)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, result.IsCorrupt())
}

func TestConsistencyCheckerFindsOrphanVectorChunks(t *testing.T) {
	store := vectorstore.NewMemoryStore(vectorstore.Config{Dimensions: 2})
	require.NoError(t, store.Add(context.Background(), []vectorstore.Document{
		{ID: "a#0", NotePath: "a.md", Vector: []float32{1, 0}},
	}))

	meta := NewJSONMetaStore(filepath.Join(t.TempDir(), "index-meta.json"))
	require.NoError(t, meta.Save(newIndexMetadata()))

	checker := NewConsistencyChecker(meta, store)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.True(t, result.IsCorrupt())
	assert.Equal(t, InconsistencyOrphanVector, result.Inconsistencies[0].Type)
}

func TestConsistencyCheckerFindsChunkCountMismatch(t *testing.T) {
	store := vectorstore.NewMemoryStore(vectorstore.Config{Dimensions: 2})
	require.NoError(t, store.Add(context.Background(), []vectorstore.Document{
		{ID: "a#0", NotePath: "a.md", Vector: []float32{1, 0}},
	}))

	meta := NewJSONMetaStore(filepath.Join(t.TempDir(), "index-meta.json"))
	m := newIndexMetadata()
	m.Notes["a.md"] = NoteEntry{NoteID: "id-a", ChunkCount: 5}
	require.NoError(t, meta.Save(m))

	checker := NewConsistencyChecker(meta, store)
	result, err := checker.Check(context.Background())
	require.NoError(t, err)
	require.True(t, result.IsCorrupt())
	assert.Equal(t, InconsistencyMissingVector, result.Inconsistencies[0].Type)
}
