package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderRecognizesKnownNames(t *testing.T) {
	assert.Equal(t, ProviderStatic, ParseProvider("static"))
	assert.Equal(t, ProviderLocal, ParseProvider("local"))
	assert.Equal(t, ProviderLocal, ParseProvider(""))
	assert.Equal(t, ProviderLocal, ParseProvider("unknown"))
}

func TestIsValidProvider(t *testing.T) {
	assert.True(t, IsValidProvider("static"))
	assert.True(t, IsValidProvider("LOCAL"))
	assert.False(t, IsValidProvider("mlx"))
}

func TestNewEmbedderStaticProviderNeverFails(t *testing.T) {
	e, err := NewEmbedder(context.Background(), ProviderStatic, "")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Available(context.Background()))
}

func TestNewEmbedderEnvOverrideSelectsStatic(t *testing.T) {
	t.Setenv("VAULTRAG_EMBEDDINGS_PROVIDER", "static")

	e, err := NewEmbedder(context.Background(), ProviderLocal, "")
	require.NoError(t, err)

	info := GetInfo(context.Background(), e)
	assert.Equal(t, ProviderStatic, info.Provider)
}

func TestNewEmbedderFallsBackToStaticWhenLocalServerUnreachable(t *testing.T) {
	t.Setenv("VAULTRAG_EMBEDDINGS_HOST", "http://127.0.0.1:1")

	e, err := NewEmbedder(context.Background(), ProviderLocal, "")
	require.NoError(t, err)
	require.NotNil(t, e)

	info := GetInfo(context.Background(), e)
	assert.Equal(t, ProviderStatic, info.Provider)
}

func TestNewEmbedderCacheCanBeDisabled(t *testing.T) {
	t.Setenv("VAULTRAG_EMBED_CACHE", "false")

	e, err := NewEmbedder(context.Background(), ProviderStatic, "")
	require.NoError(t, err)

	_, ok := e.(*CachedEmbedder)
	assert.False(t, ok)
}

func TestMustNewEmbedderDoesNotPanicForStaticProvider(t *testing.T) {
	assert.NotPanics(t, func() {
		MustNewEmbedder(context.Background(), ProviderStatic, "")
	})
}
