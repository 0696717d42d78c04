package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinksCmd_SuggestsPlainTextMention(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vault, "roadmap.md"), []byte("# Roadmap\n\nThe plan.\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(vault, "journal.md"),
		[]byte("# Journal\n\nToday I reviewed the Roadmap with the team.\n"), 0644))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--vault", vault, "links", "journal.md"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "roadmap")
}

func TestLinksCmd_NoSuggestionsMessage(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vault, "alone.md"), []byte("# Alone\n\nNothing to link.\n"), 0644))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--vault", vault, "links", "alone.md"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no suggestions")
}

func TestLinksCmd_RequiresNoteArgument(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"links"})

	err := cmd.Execute()

	assert.Error(t, err)
}

func TestLinksCmd_FailsOnUnknownNote(t *testing.T) {
	vault := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(vault, "a.md"), []byte("# A\n"), 0644))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--vault", vault, "links", "missing.md"})

	err := cmd.Execute()

	assert.Error(t, err)
}
