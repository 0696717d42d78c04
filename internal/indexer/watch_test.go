package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vaultrag/core/internal/embed"
	"github.com/vaultrag/core/internal/vectorstore"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	vault := t.TempDir()
	ix := New(Config{VaultPath: vault}, vectorstore.NewMemoryStore(vectorstore.Config{Dimensions: embed.StaticDimensions}), embed.NewStaticEmbedder())
	return NewWatcher(ix, nil)
}

func TestWatcherShouldIgnoreDirSkipsMetadataAndHidden(t *testing.T) {
	w := newTestWatcher(t)
	assert.True(t, w.shouldIgnoreDir(".vaultrag"))
	assert.True(t, w.shouldIgnoreDir("node_modules"))
	assert.True(t, w.shouldIgnoreDir(".git"))
	assert.True(t, w.shouldIgnoreDir("notes/.hidden"))
	assert.False(t, w.shouldIgnoreDir("notes"))
}

func TestWatcherShouldIgnoreTopLevelPath(t *testing.T) {
	w := newTestWatcher(t)
	assert.True(t, w.shouldIgnore(""))
	assert.True(t, w.shouldIgnore("."))
	assert.True(t, w.shouldIgnore(".vaultrag/index-meta.json"))
	assert.False(t, w.shouldIgnore("notes/a.md"))
}
