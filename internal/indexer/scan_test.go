package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanVaultFindsMarkdownNotesAndSkipsExcluded(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "a.md", "---\nid: note-a\ntitle: Note A\n---\n\nbody")
	writeNote(t, vault, "node_modules/ignored.md", "should be skipped")
	writeNote(t, vault, ".vaultrag/ignored.md", "should also be skipped")
	writeNote(t, vault, "notes.txt", "not markdown")

	notes, err := scanVault(vault, nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a.md", notes[0].Path)
	assert.Equal(t, "note-a", notes[0].FrontID)
	assert.Equal(t, "Note A", notes[0].Title)
}

func TestScanVaultTitleFallsBackToBasename(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "untitled.md", "no front matter here")

	notes, err := scanVault(vault, nil)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "untitled", notes[0].Title)
}

func TestScanVaultRespectsExtraExcludes(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "keep.md", "kept")
	writeNote(t, vault, "archive/old.md", "excluded")

	notes, err := scanVault(vault, []string{"archive"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "keep.md", notes[0].Path)
}

func TestHashContentIsStableAndSensitiveToChange(t *testing.T) {
	a := hashContent([]byte("hello"))
	b := hashContent([]byte("hello"))
	c := hashContent([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestParseNoteFrontMatterMalformedYAMLYieldsZeroValue(t *testing.T) {
	fm := parseNoteFrontMatter("---\nid: [unterminated\n---\nbody")
	assert.Equal(t, noteFrontMatter{}, fm)
}

