package logging

import (
	"os"
	"path/filepath"
)

// MetadataDirName is the vault's sibling metadata directory name (§6
// "Under a sibling metadata directory"). It holds the vector store,
// index-meta.json, and logs for a given vault.
const MetadataDirName = ".vaultrag"

// MetadataDir returns the metadata directory for a vault rooted at vaultPath.
func MetadataDir(vaultPath string) string {
	return filepath.Join(vaultPath, MetadataDirName)
}

// DefaultLogPath returns the default log file path for a vault.
func DefaultLogPath(vaultPath string) string {
	return filepath.Join(MetadataDir(vaultPath), "logs", "vaultrag.log")
}

// EnsureLogDir creates the log directory for a vault if it doesn't exist.
func EnsureLogDir(vaultPath string) error {
	return os.MkdirAll(filepath.Dir(DefaultLogPath(vaultPath)), 0o755)
}
