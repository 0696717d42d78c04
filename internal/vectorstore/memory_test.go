package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitVector(dims int, hot int) []float32 {
	v := make([]float32, dims)
	v[hot] = 1.0
	return v
}

func TestMemoryStoreAddUpsertsByID(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 4})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{{ID: "c1", NotePath: "a.md", Vector: unitVector(4, 0)}}))
	require.NoError(t, s.Add(ctx, []Document{{ID: "c1", NotePath: "b.md", Vector: unitVector(4, 1)}}))

	assert.Equal(t, 1, s.Count())
	docs := s.AllDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, "b.md", docs[0].NotePath)
}

func TestMemoryStoreSearchRanksByCosineSimilarity(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 3})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "a", Vector: []float32{1, 0, 0}},
		{ID: "b", Vector: []float32{0, 1, 0}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}},
	}))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "c", results[1].ID)
}

func TestMemoryStoreSearchRejectsDimensionMismatch(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 3})
	_, err := s.Search(context.Background(), []float32{1, 0}, 5)
	var dimErr ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestMemoryStoreDeleteByNotePathIsAtomic(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 2})
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "a1", NotePath: "note.md", Vector: unitVector(2, 0)},
		{ID: "a2", NotePath: "note.md", Vector: unitVector(2, 1)},
		{ID: "b1", NotePath: "other.md", Vector: unitVector(2, 0)},
	}))

	require.NoError(t, s.DeleteByNotePath(ctx, "note.md"))

	assert.Equal(t, 1, s.Count())
	docs := s.AllDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, "other.md", docs[0].NotePath)
}

func TestMemoryStoreClearEmptiesStore(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 2})
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Document{{ID: "a", Vector: unitVector(2, 0)}}))

	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Count())
}

func TestMemoryStoreEmptySearchReturnsEmptySlice(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 2})
	results, err := s.Search(context.Background(), unitVector(2, 0), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStoreClosedRejectsOperations(t *testing.T) {
	s := NewMemoryStore(Config{Dimensions: 2})
	require.NoError(t, s.Close())

	err := s.Add(context.Background(), []Document{{ID: "a", Vector: unitVector(2, 0)}})
	assert.Error(t, err)
}
