package logging

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONLines(t *testing.T) {
	vault := t.TempDir()

	cfg := DefaultConfig(vault)
	cfg.WriteToStderr = false
	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("indexed note", "notePath", "a.md", "chunks", 3)
	cleanup()

	f, err := os.Open(cfg.FilePath)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	assert.Contains(t, scanner.Text(), "indexed note")
	assert.Contains(t, scanner.Text(), "a.md")
}

func TestDefaultLogPathUnderMetadataDir(t *testing.T) {
	vault := "/home/user/notes"
	path := DefaultLogPath(vault)
	assert.Equal(t, filepath.Join(vault, MetadataDirName, "logs", "vaultrag.log"), path)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelFromString("debug").String())
	assert.Equal(t, "INFO", LevelFromString("unknown").String())
	assert.Equal(t, "WARN", LevelFromString("warn").String())
	assert.Equal(t, "ERROR", LevelFromString("error").String())
}
