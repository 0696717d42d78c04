package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderEmbedIsDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "hello world")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestStaticEmbedderEmptyTextYieldsZeroVector(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	for _, f := range v {
		assert.Zero(t, f)
	}
}

func TestStaticEmbedderVectorIsUnitNormalized(t *testing.T) {
	e := NewStaticEmbedder()
	v, err := e.Embed(context.Background(), "some note content about graphs")
	require.NoError(t, err)

	var sumSquares float64
	for _, f := range v {
		sumSquares += float64(f) * float64(f)
	}
	assert.InDelta(t, 1.0, sumSquares, 0.001)
}

func TestStaticEmbedderRespectsConfiguredDimensions(t *testing.T) {
	e := NewStaticEmbedderWithDimensions(DefaultDimensions)
	assert.Equal(t, DefaultDimensions, e.Dimensions())

	v, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, v, DefaultDimensions)
}

func TestStaticEmbedderEmbedBatchMatchesIndividualEmbed(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()
	texts := []string{"alpha note", "beta note", ""}

	batch, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestStaticEmbedderEmbedQueryMatchesEmbed(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	q, err := e.EmbedQuery(ctx, "search phrase")
	require.NoError(t, err)
	d, err := e.Embed(ctx, "search phrase")
	require.NoError(t, err)

	assert.Equal(t, d, q)
}

func TestStaticEmbedderCloseRejectsFurtherUse(t *testing.T) {
	e := NewStaticEmbedder()
	require.NoError(t, e.Close())

	assert.False(t, e.Available(context.Background()))
	_, err := e.Embed(context.Background(), "anything")
	assert.Error(t, err)
}

func TestStaticEmbedderModelNameIsStable(t *testing.T) {
	e := NewStaticEmbedder()
	assert.Equal(t, "static", e.ModelName())
}

func TestSplitCodeTokenHandlesCamelAndSnakeCase(t *testing.T) {
	assert.Equal(t, []string{"get", "Note", "Title"}, splitCodeToken("getNoteTitle"))
	assert.Equal(t, []string{"note", "title"}, splitCodeToken("note_title"))
}
