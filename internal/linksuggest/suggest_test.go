package linksuggest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultrag/core/internal/graph"
)

func writeNote(t *testing.T, vault, relPath, content string) {
	t.Helper()
	full := filepath.Join(vault, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newSuggester(vault string) *Suggester {
	return New(vault, graph.New(nil))
}

func TestSuggestFindsPlainTextMentionOfAnotherTitle(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "roadmap.md", "# Roadmap\ncontent")
	writeNote(t, vault, "journal.md", "Today I reviewed the Roadmap with the team.")

	s := newSuggester(vault)
	suggestions, err := s.Suggest(context.Background(), "journal.md", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "roadmap.md", suggestions[0].TargetPath)
	assert.Equal(t, "Roadmap", suggestions[0].Anchor)
}

func TestSuggestExcludesAlreadyLinkedMentions(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "roadmap.md", "# Roadmap\ncontent")
	writeNote(t, vault, "journal.md", "See [[Roadmap]] for details. Roadmap is on track.")

	s := newSuggester(vault)
	suggestions, err := s.Suggest(context.Background(), "journal.md", Options{ExcludeExisting: true})
	require.NoError(t, err)
	assert.Empty(t, suggestions, "a note already wikilinked once should not be re-suggested")

	suggestions, err = s.Suggest(context.Background(), "journal.md", Options{ExcludeExisting: false})
	require.NoError(t, err)
	require.Len(t, suggestions, 1, "the bracketed span itself is still never re-suggested as an anchor")
}

func TestSuggestMatchesFrontMatterAlias(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "roadmap.md", "---\ntitle: Roadmap\naliases:\n  - Product Plan\n---\ncontent")
	writeNote(t, vault, "journal.md", "We discussed the Product Plan today.")

	s := newSuggester(vault)
	suggestions, err := s.Suggest(context.Background(), "journal.md", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "roadmap.md", suggestions[0].TargetPath)
	assert.Less(t, suggestions[0].Confidence, 1.0)
}

func TestSuggestRespectsMaxSuggestions(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "a.md", "# A\n")
	writeNote(t, vault, "b.md", "# B\n")
	writeNote(t, vault, "journal.md", "Mentions of A and B appear here.")

	s := newSuggester(vault)
	suggestions, err := s.Suggest(context.Background(), "journal.md", Options{MaxSuggestions: 1})
	require.NoError(t, err)
	assert.Len(t, suggestions, 1)
}

func TestSuggestRespectsMinConfidence(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "roadmap.md", "# Roadmap\n")
	writeNote(t, vault, "journal.md", "our ROADMAP needs review")

	s := newSuggester(vault)
	suggestions, err := s.Suggest(context.Background(), "journal.md", Options{MinConfidence: 0.9})
	require.NoError(t, err)
	assert.Empty(t, suggestions, "case-insensitive-only match scores below 0.9")
}

func TestSuggestReturnsNotFoundForUnknownNote(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "a.md", "# A\n")

	s := newSuggester(vault)
	_, err := s.Suggest(context.Background(), "missing.md", Options{})
	require.Error(t, err)
}

func TestSuggestContextIncludesSurroundingText(t *testing.T) {
	vault := t.TempDir()
	writeNote(t, vault, "roadmap.md", "# Roadmap\n")
	writeNote(t, vault, "journal.md", "Before the mention of Roadmap here is some text, and after it too.")

	s := newSuggester(vault)
	suggestions, err := s.Suggest(context.Background(), "journal.md", Options{ContextChars: 20})
	require.NoError(t, err)
	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions[0].Context, "Roadmap")
}
