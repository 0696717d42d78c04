package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCmd_FindsIndexedNote(t *testing.T) {
	vault := t.TempDir()
	createTestVault(t, vault)
	require.NoError(t, os.WriteFile(filepath.Join(vault, "roadmap.md"),
		[]byte("# Product Roadmap\n\nPlanned features for next quarter.\n"), 0644))

	indexCmd := NewRootCmd()
	indexCmd.SetArgs([]string{"--vault", vault, "index"})
	require.NoError(t, indexCmd.Execute())

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--vault", vault, "search", "product", "roadmap"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "roadmap.md")
}

func TestSearchCmd_NoResultsMessage(t *testing.T) {
	vault := t.TempDir()
	createTestVault(t, vault)

	indexCmd := NewRootCmd()
	indexCmd.SetArgs([]string{"--vault", vault, "index"})
	require.NoError(t, indexCmd.Execute())

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--vault", vault, "search", "completely", "unrelated", "xyzzy"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no results")
}

func TestSearchCmd_JSONFormat(t *testing.T) {
	vault := t.TempDir()
	createTestVault(t, vault)

	indexCmd := NewRootCmd()
	indexCmd.SetArgs([]string{"--vault", vault, "index"})
	require.NoError(t, indexCmd.Execute())

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--vault", vault, "search", "--format", "json", "test"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "[")
}

func TestSearchCmd_RequiresQueryArgument(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"search"})

	err := cmd.Execute()

	assert.Error(t, err)
}
