package indexer

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/vaultrag/core/internal/errors"

	_ "modernc.org/sqlite" // pure Go driver, no CGO
)

// SQLiteMetaStore persists IndexMetadata in a single-table SQLite database
// instead of the flat JSON file, for vaults large enough that rewriting the
// whole file on every incremental run becomes wasteful. Connection setup
// (WAL mode, busy timeout, single-writer pool) mirrors the teacher's
// SQLiteBM25Index (internal/store/sqlite_bm25.go), the only SQLite precedent
// in the pack; this store only tracks note bookkeeping, not full-text search.
type SQLiteMetaStore struct {
	db   *sql.DB
	path string
}

var _ MetaStore = (*SQLiteMetaStore)(nil)

// NewSQLiteMetaStore opens (creating if absent) a SQLite-backed MetaStore at
// path. An empty path opens an in-memory database, useful for tests.
func NewSQLiteMetaStore(path string) (*SQLiteMetaStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.IOErrorf(err, "failed to create directory for %s", path)
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.IOErrorf(err, "failed to open sqlite metadata store %s", path)
	}

	// Single writer, matching the vault's process-wide single-writer
	// guarantee for IndexMetadata (§5).
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if path == "" && pragma == "PRAGMA journal_mode = WAL" {
			continue // WAL is meaningless for :memory:
		}
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.IOErrorf(err, "failed to set pragma %q", pragma)
		}
	}

	s := &SQLiteMetaStore{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteMetaStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);
	CREATE TABLE IF NOT EXISTS notes (
		path TEXT PRIMARY KEY,
		note_id TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		mtime TEXT NOT NULL,
		chunk_count INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.IOErrorf(err, "failed to initialize sqlite metadata schema")
	}
	if _, err := s.db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", MetadataVersion); err != nil {
		return errors.IOErrorf(err, "failed to record schema version")
	}
	return nil
}

// Load reconstructs IndexMetadata from the notes table. A freshly-created
// (empty) database loads as an empty-but-present metadata set, distinct from
// the JSON store's file_not_found signal — callers distinguish the two via
// whether the underlying file existed before NewSQLiteMetaStore was called.
func (s *SQLiteMetaStore) Load() (*IndexMetadata, error) {
	rows, err := s.db.Query("SELECT path, note_id, content_hash, mtime, chunk_count FROM notes")
	if err != nil {
		return nil, errors.IOErrorf(err, "failed to query sqlite metadata")
	}
	defer rows.Close()

	meta := newIndexMetadata()
	for rows.Next() {
		var path, noteID, contentHash, mtimeStr string
		var chunkCount int
		if err := rows.Scan(&path, &noteID, &contentHash, &mtimeStr, &chunkCount); err != nil {
			return nil, errors.CorruptionErrorf(err, "malformed row in sqlite metadata")
		}
		mtime, _ := time.Parse(time.RFC3339Nano, mtimeStr)
		meta.Notes[path] = NoteEntry{
			NoteID:      noteID,
			ContentHash: contentHash,
			ModTime:     mtime,
			ChunkCount:  chunkCount,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IOErrorf(err, "failed reading sqlite metadata rows")
	}
	return meta, nil
}

// Save replaces the notes table contents with meta, inside one transaction
// so a reader never observes a partially-replaced table.
func (s *SQLiteMetaStore) Save(meta *IndexMetadata) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.IOErrorf(err, "failed to begin sqlite metadata transaction")
	}

	if _, err := tx.Exec("DELETE FROM notes"); err != nil {
		_ = tx.Rollback()
		return errors.IOErrorf(err, "failed to clear sqlite metadata notes table")
	}

	stmt, err := tx.Prepare("INSERT INTO notes (path, note_id, content_hash, mtime, chunk_count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return errors.IOErrorf(err, "failed to prepare sqlite metadata insert")
	}
	defer stmt.Close()

	for path, entry := range meta.Notes {
		if _, err := stmt.Exec(path, entry.NoteID, entry.ContentHash, entry.ModTime.Format(time.RFC3339Nano), entry.ChunkCount); err != nil {
			_ = tx.Rollback()
			return errors.IOErrorf(err, "failed to insert sqlite metadata row for %s", path)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.IOErrorf(err, "failed to commit sqlite metadata transaction")
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteMetaStore) Close() error {
	return s.db.Close()
}

// ExportJSON writes the current SQLite-backed metadata out in the §6 wire
// format, for interoperability with tooling that expects index-meta.json.
func (s *SQLiteMetaStore) ExportJSON(path string) error {
	meta, err := s.Load()
	if err != nil {
		return err
	}
	return NewJSONMetaStore(path).Save(meta)
}
