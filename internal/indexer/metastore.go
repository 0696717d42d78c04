package indexer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/vaultrag/core/internal/errors"
)

// JSONMetaStore persists IndexMetadata as a single `index-meta.json` file
// under the vault's metadata directory, matching §6's mandated wire format:
// `{version:2, notes:{path:{noteId, contentHash, mtime, chunkCount}}}`.
type JSONMetaStore struct {
	path string
}

var _ MetaStore = (*JSONMetaStore)(nil)

// NewJSONMetaStore returns a MetaStore backed by the file at path.
func NewJSONMetaStore(path string) *JSONMetaStore {
	return &JSONMetaStore{path: path}
}

// Load reads IndexMetadata from disk. A missing file is not an error: the
// caller (indexIncremental) is responsible for turning that into the
// file_not_found signal per §4.8 step 1.
func (s *JSONMetaStore) Load() (*IndexMetadata, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IOErrorf(err, "failed to read index metadata %s", s.path)
	}

	var meta IndexMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.CorruptionErrorf(err, "index metadata %s is malformed", s.path)
	}
	if meta.Notes == nil {
		meta.Notes = make(map[string]NoteEntry)
	}
	return &meta, nil
}

// Save atomically replaces the on-disk metadata file (write-temp, rename).
func (s *JSONMetaStore) Save(meta *IndexMetadata) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.IOErrorf(err, "failed to create metadata directory for %s", s.path)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.IOErrorf(err, "failed to marshal index metadata")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.IOErrorf(err, "failed to write index metadata %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.IOErrorf(err, "failed to replace index metadata %s", s.path)
	}
	return nil
}
