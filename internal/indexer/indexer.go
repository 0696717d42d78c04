package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vaultrag/core/internal/chunk"
	"github.com/vaultrag/core/internal/embed"
	"github.com/vaultrag/core/internal/errors"
	"github.com/vaultrag/core/internal/logging"
	"github.com/vaultrag/core/internal/vectorstore"
)

// Config configures an Indexer.
type Config struct {
	VaultPath    string
	ChunkConfig  chunk.Config
	Excludes     []string // additional vault-relative dir names to skip
	EmbedWorkers int      // parallel embedding workers for indexAll/indexIncremental (§5)
	Logger       *slog.Logger
}

// Indexer implements the Incremental Indexer (§4.8): indexAll,
// indexIncremental, indexNote, loadMetadata.
type Indexer struct {
	vaultPath    string
	chunkCfg     chunk.Config
	excludes     []string
	embedWorkers int

	store    vectorstore.Store
	embedder embed.Embedder
	meta     MetaStore
	logger   *slog.Logger

	mu sync.Mutex // single in-process writer (§5); WriterLock (lock.go) is not taken here
}

// New builds an Indexer over an already-constructed vector store and
// embedder, using the default JSON-backed MetaStore under the vault's
// metadata directory.
func New(cfg Config, store vectorstore.Store, embedder embed.Embedder) *Indexer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := cfg.EmbedWorkers
	if workers <= 0 {
		workers = 4
	}

	metaPath := filepath.Join(logging.MetadataDir(cfg.VaultPath), "index-meta.json")
	return &Indexer{
		vaultPath:    cfg.VaultPath,
		chunkCfg:     cfg.ChunkConfig,
		excludes:     cfg.Excludes,
		embedWorkers: workers,
		store:        store,
		embedder:     embedder,
		meta:         NewJSONMetaStore(metaPath),
		logger:       logger,
	}
}

// WithMetaStore overrides the default JSON metadata store, e.g. with a
// SQLiteMetaStore for larger vaults.
func (ix *Indexer) WithMetaStore(m MetaStore) *Indexer {
	ix.meta = m
	return ix
}

// LoadMetadata loads and validates persisted IndexMetadata (§4.8
// loadMetadata). A missing file is reported via Loaded=false rather than an
// error; callers that also observe a non-empty vector store should treat
// that combination as reason=file_not_found per §4.8 step 1.
func (ix *Indexer) LoadMetadata() (LoadResult, error) {
	meta, err := ix.meta.Load()
	if err != nil {
		return LoadResult{}, err
	}
	if meta == nil {
		reason := ""
		if ix.store.Count() > 0 {
			reason = "file_not_found"
		}
		return LoadResult{Loaded: false, Reason: reason}, nil
	}
	return LoadResult{Loaded: true, NoteCount: len(meta.Notes)}, nil
}

// IndexAll purges the vector store and metadata, then chunks, embeds, and
// adds every note in the vault from scratch (§4.8 indexAll).
func (ix *Indexer) IndexAll(ctx context.Context) (*IndexResult, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.Clear(ctx); err != nil {
		return nil, err
	}

	notes, err := scanVault(ix.vaultPath, ix.excludes)
	if err != nil {
		return nil, err
	}

	meta := newIndexMetadata()
	result := &IndexResult{}

	for _, note := range notes {
		select {
		case <-ctx.Done():
			return nil, errors.CancelledError()
		default:
		}

		entry, err := ix.indexOneNote(ctx, note)
		if err != nil {
			ix.logger.Warn("failed to index note", "path", note.Path, "error", err)
			result.Failed = append(result.Failed, FailedNote{Path: note.Path, Error: err.Error()})
			continue
		}
		meta.Notes[note.Path] = *entry
		result.Added = append(result.Added, note.Path)
	}

	if err := ix.meta.Save(meta); err != nil {
		return nil, err
	}
	return result, nil
}

// IndexIncremental reconciles the vault against persisted metadata,
// performing only the work needed for added, updated, and removed notes
// (§4.8 indexIncremental algorithm, steps 1-5).
func (ix *Indexer) IndexIncremental(ctx context.Context) (*IndexResult, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	meta, err := ix.meta.Load()
	if err != nil {
		return nil, err
	}
	if meta == nil {
		if ix.store.Count() > 0 {
			return nil, errors.ValidationErrorf("index metadata not found but vector store is non-empty (reason=file_not_found); call indexAll")
		}
		meta = newIndexMetadata()
	}

	notes, err := scanVault(ix.vaultPath, ix.excludes)
	if err != nil {
		return nil, err
	}

	result := &IndexResult{}
	seen := make(map[string]struct{}, len(notes))

	for _, note := range notes {
		select {
		case <-ctx.Done():
			return nil, errors.CancelledError()
		default:
		}

		seen[note.Path] = struct{}{}
		existing, known := meta.Notes[note.Path]

		switch {
		case !known:
			entry, err := ix.indexOneNote(ctx, note)
			if err != nil {
				ix.logger.Warn("failed to index new note", "path", note.Path, "error", err)
				result.Failed = append(result.Failed, FailedNote{Path: note.Path, Error: err.Error()})
				continue
			}
			meta.Notes[note.Path] = *entry
			result.Added = append(result.Added, note.Path)

		case existing.ContentHash != note.ContentHash:
			if err := ix.store.DeleteByNotePath(ctx, note.Path); err != nil {
				return nil, err
			}
			entry, err := ix.indexOneNote(ctx, note)
			if err != nil {
				ix.logger.Warn("failed to reindex changed note", "path", note.Path, "error", err)
				result.Failed = append(result.Failed, FailedNote{Path: note.Path, Error: err.Error()})
				delete(meta.Notes, note.Path) // next run retries the add
				continue
			}
			meta.Notes[note.Path] = *entry
			result.Updated = append(result.Updated, note.Path)

		default:
			result.Skipped = append(result.Skipped, note.Path)
		}
	}

	for path := range meta.Notes {
		if _, stillPresent := seen[path]; stillPresent {
			continue
		}
		if err := ix.store.DeleteByNotePath(ctx, path); err != nil {
			return nil, err
		}
		delete(meta.Notes, path)
		result.Removed = append(result.Removed, path)
	}

	if err := ix.meta.Save(meta); err != nil {
		return nil, err
	}
	return result, nil
}

// IndexNote refreshes a single note by vault-relative path, used after a
// successful write by an external collaborator (§4.8 indexNote).
func (ix *Indexer) IndexNote(ctx context.Context, path string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	meta, err := ix.meta.Load()
	if err != nil {
		return err
	}
	if meta == nil {
		meta = newIndexMetadata()
	}

	notes, err := scanVault(ix.vaultPath, ix.excludes)
	if err != nil {
		return err
	}

	var target *scannedNote
	for i := range notes {
		if notes[i].Path == filepath.ToSlash(path) {
			target = &notes[i]
			break
		}
	}

	if target == nil {
		// Note no longer exists: treat as a removal.
		if err := ix.store.DeleteByNotePath(ctx, path); err != nil {
			return err
		}
		delete(meta.Notes, path)
		return ix.meta.Save(meta)
	}

	if err := ix.store.DeleteByNotePath(ctx, target.Path); err != nil {
		return err
	}
	entry, err := ix.indexOneNote(ctx, *target)
	if err != nil {
		return err
	}
	meta.Notes[target.Path] = *entry
	return ix.meta.Save(meta)
}

// indexOneNote chunks, embeds, and writes one note's documents, returning
// the NoteEntry to persist on success. Embedding failures for this note
// propagate to the caller for per-note failure isolation (§4.8).
func (ix *Indexer) indexOneNote(ctx context.Context, note scannedNote) (*NoteEntry, error) {
	chunks := chunk.Split(note.Content, ix.chunkCfg)
	if len(chunks) == 0 {
		return &NoteEntry{
			NoteID:      noteID(note),
			ContentHash: note.ContentHash,
			ModTime:     time.Now(),
			ChunkCount:  0,
		}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := ix.embedBatchParallel(ctx, texts)
	if err != nil {
		return nil, errors.ModelInferenceErrorf(err, "failed to embed note %s", note.Path)
	}

	id := noteID(note)
	docs := make([]vectorstore.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = vectorstore.Document{
			ID:          fmt.Sprintf("%s#%d", id, c.ChunkIndex),
			NotePath:    note.Path,
			NoteTitle:   note.Title,
			Content:     c.Content,
			ChunkIndex:  c.ChunkIndex,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
			HasHeader:   c.HasHeader,
			Vector:      vectors[i],
		}
	}

	if err := ix.store.Add(ctx, docs); err != nil {
		return nil, err
	}

	return &NoteEntry{
		NoteID:      id,
		ContentHash: note.ContentHash,
		ModTime:     time.Now(),
		ChunkCount:  len(chunks),
	}, nil
}

// embedBatchParallel embeds texts using up to embedWorkers concurrent
// batches, since the embedder is the indexing bottleneck while vector-store
// writes stay serialized by ix.mu (§5 "indexing embeds in parallel").
func (ix *Indexer) embedBatchParallel(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) <= 1 || ix.embedWorkers <= 1 {
		return ix.embedder.EmbedBatch(ctx, texts)
	}

	chunkSize := (len(texts) + ix.embedWorkers - 1) / ix.embedWorkers
	type batchResult struct {
		start int
		vecs  [][]float32
		err   error
	}

	results := make(chan batchResult, ix.embedWorkers)
	var wg sync.WaitGroup

	for start := 0; start < len(texts); start += chunkSize {
		end := start + chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			vecs, err := ix.embedder.EmbedBatch(ctx, texts[start:end])
			results <- batchResult{start: start, vecs: vecs, err: err}
		}(start, end)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([][]float32, len(texts))
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		copy(out[r.start:r.start+len(r.vecs)], r.vecs)
	}
	return out, nil
}

// noteID returns a note's stable identifier: its front-matter id if present,
// otherwise a deterministic UUID derived from its path so re-scans of an
// unchanged note reuse the same id.
func noteID(note scannedNote) string {
	if note.FrontID != "" {
		return note.FrontID
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(note.Path)).String()
}
