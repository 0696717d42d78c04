// Package indexer reconciles the on-disk note set with the vector store and
// IndexMetadata, minimizing work on each run (§4.8).
package indexer

import (
	"time"
)

// MetadataVersion is the current on-disk IndexMetadata schema version (§6).
const MetadataVersion = 2

// NoteEntry is one note's persisted bookkeeping record, keyed by vault-
// relative path rather than front-matter id: two notes sharing a front-matter
// id must not collide in the metadata map (§4.8).
type NoteEntry struct {
	NoteID      string    `json:"noteId"`
	ContentHash string    `json:"contentHash"`
	ModTime     time.Time `json:"mtime"`
	ChunkCount  int       `json:"chunkCount"`
}

// IndexMetadata is the persisted state of a vault's index (§3, §6).
type IndexMetadata struct {
	Version int                  `json:"version"`
	Notes   map[string]NoteEntry `json:"notes"`
}

// newIndexMetadata returns an empty, current-version IndexMetadata.
func newIndexMetadata() *IndexMetadata {
	return &IndexMetadata{
		Version: MetadataVersion,
		Notes:   make(map[string]NoteEntry),
	}
}

// LoadResult reports the outcome of loadMetadata (§4.8).
type LoadResult struct {
	Loaded    bool
	Reason    string // e.g. "file_not_found"; empty on success
	NoteCount int
}

// IndexResult summarizes the effect of an indexAll or indexIncremental run
// (§4.8 indexIncremental returns {added, updated, removed}).
type IndexResult struct {
	Added   []string
	Updated []string
	Removed []string
	Skipped []string // unchanged, left alone
	Failed  []FailedNote
}

// FailedNote records a per-note embedding failure that was isolated rather
// than aborting the whole run (§4.8 "Failure model").
type FailedNote struct {
	Path  string
	Error string
}

// MetaStore persists and loads IndexMetadata. JSONMetaStore is the default,
// wire-format-mandated (§6) implementation; SQLiteMetaStore is an optional
// larger-vault alternative (§11 DOMAIN STACK).
type MetaStore interface {
	Load() (*IndexMetadata, error)
	Save(meta *IndexMetadata) error
}
