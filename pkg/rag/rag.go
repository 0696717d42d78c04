// Package rag is the programmatic facade over the retrieval core (§6):
// RAG.initialize/search/indexAll/indexIncremental/indexNote, Graph.analyze/
// quickStats, Links.suggest. It wires the internal/* components together
// the way the teacher's pkg/indexer and pkg/searcher package up their own
// internal stores behind a small exported surface, so a caller (CLI, MCP
// server, editor plugin) never imports internal/* directly.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vaultrag/core/internal/chunk"
	"github.com/vaultrag/core/internal/config"
	"github.com/vaultrag/core/internal/embed"
	"github.com/vaultrag/core/internal/graph"
	"github.com/vaultrag/core/internal/indexer"
	"github.com/vaultrag/core/internal/linksuggest"
	"github.com/vaultrag/core/internal/logging"
	"github.com/vaultrag/core/internal/retriever"
	"github.com/vaultrag/core/internal/vectorstore"
	"github.com/vaultrag/core/internal/wikilink"
)

// RAG is the top-level entry point: one instance per open vault.
type RAG struct {
	vaultPath string
	cfg       *config.Config
	logger    *slog.Logger

	store     vectorstore.Store
	embedder  embed.Embedder
	indexer   *indexer.Indexer
	retriever *retriever.Retriever
	analyzer  *graph.Analyzer

	// Graph and Links expose the two other programmatic surfaces named in
	// §6 as their own dotted namespace, mirroring the spec's
	// "RAG.search"/"Graph.analyze"/"Links.suggest" naming.
	Graph *GraphService
	Links *LinksService

	centralityMu sync.Mutex
	centrality   map[string]float64 // memoized PageRank scores, invalidated with the analyzer's own cache
}

// storePath returns the persisted HNSW index file location under the
// vault's metadata directory.
func storePath(vaultPath string) string {
	return filepath.Join(logging.MetadataDir(vaultPath), "vectors.hnsw")
}

// New initializes a RAG over vaultPath (§6 RAG.initialize): builds the
// configured vector store, embedder, indexer, graph analyzer, retriever,
// and link suggester, loading any persisted index from disk.
func New(ctx context.Context, vaultPath string, cfg *config.Config, logger *slog.Logger) (*RAG, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	embedder, err := embed.NewEmbedder(ctx, embed.ParseProvider(cfg.Embeddings.Provider), cfg.Embeddings.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store, err := newStore(cfg, embedder, vaultPath)
	if err != nil {
		return nil, err
	}

	ix := indexer.New(indexer.Config{
		VaultPath:    vaultPath,
		ChunkConfig:  chunk.Config{TargetSizeChars: cfg.Chunker.TargetSizeChars, OverlapChars: cfg.Chunker.OverlapChars},
		Excludes:     cfg.Vault.Exclude,
		EmbedWorkers: config.IndexWorkers(),
		Logger:       logger,
	}, store, embedder)

	if cfg.VectorStore.UseSQLiteMetadata {
		metaPath := filepath.Join(logging.MetadataDir(vaultPath), "index-meta.db")
		meta, err := indexer.NewSQLiteMetaStore(metaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite metadata store: %w", err)
		}
		ix = ix.WithMetaStore(meta)
	}

	analyzer := graph.New(logger)

	var reranker retriever.Reranker = retriever.NoOpReranker{}
	if cfg.Reranker.Enabled {
		reranker = retriever.NewOllamaReranker(cfg.Reranker.Endpoint, cfg.Reranker.Model, cfg.Reranker.SnippetChars, cfg.Reranker.Timeout)
	}

	r := &RAG{
		vaultPath: vaultPath,
		cfg:       cfg,
		logger:    logger,
		store:     store,
		embedder:  embedder,
		indexer:   ix,
		analyzer:  analyzer,
	}

	r.retriever = retriever.New(retriever.Config{
		Store:      store,
		Embedder:   embedder,
		Reranker:   reranker,
		Centrality: r.lookupCentrality,
		Logger:     logger,
	})

	r.Graph = &GraphService{r: r}
	r.Links = &LinksService{suggester: linksuggest.New(vaultPath, analyzer)}

	return r, nil
}

func newStore(cfg *config.Config, embedder embed.Embedder, vaultPath string) (vectorstore.Store, error) {
	vsCfg := vectorstore.Config{
		Dimensions:     embedder.Dimensions(),
		M:              cfg.VectorStore.M,
		EfConstruction: cfg.VectorStore.EfConstruction,
		EfSearch:       cfg.VectorStore.EfSearch,
	}

	if cfg.VectorStore.Backend == "memory" {
		return vectorstore.NewMemoryStore(vsCfg), nil
	}

	store, err := vectorstore.NewHNSWStore(vsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	if _, statErr := os.Stat(storePath(vaultPath)); statErr == nil {
		if err := store.Load(storePath(vaultPath)); err != nil {
			return nil, fmt.Errorf("failed to load persisted vector store: %w", err)
		}
	}
	return store, nil
}

// Search runs a retrieval query (§6 RAG.search). Mode, weights, topK,
// minScore, timeouts and graph boosting fall back to the configured
// defaults where opts leaves them unset; LLM reranking and query expansion
// run only when opts enables them.
func (r *RAG) Search(ctx context.Context, query string, opts retriever.Options) ([]retriever.Result, error) {
	opts = r.applyConfigDefaults(opts)
	return r.retriever.Search(ctx, query, opts)
}

// applyConfigDefaults fills unset Options fields from the vault's
// configuration, so callers only need to override what they care about.
func (r *RAG) applyConfigDefaults(opts retriever.Options) retriever.Options {
	rc := r.cfg.Retriever
	if opts.Mode == "" {
		opts.Mode = retriever.Mode(rc.Mode)
	}
	if opts.TopK == 0 {
		opts.TopK = rc.TopK
	}
	if opts.MinScore == 0 {
		opts.MinScore = rc.MinScore
	}
	if opts.VectorWeight == 0 {
		opts.VectorWeight = rc.VectorWeight
	}
	if opts.KeywordWeight == 0 {
		opts.KeywordWeight = rc.KeywordWeight
	}
	if opts.OversamplingFactor == 0 {
		opts.OversamplingFactor = rc.OversamplingFactor
	}
	if opts.BoostFactor == 0 {
		opts.BoostFactor = rc.BoostFactor
	}
	if opts.MaxVariants == 0 {
		opts.MaxVariants = rc.MaxVariants
	}
	if opts.BM25K1 == 0 {
		opts.BM25K1 = rc.BM25K1
	}
	if opts.BM25B == 0 {
		opts.BM25B = rc.BM25B
	}
	if opts.QueryTimeout == 0 {
		opts.QueryTimeout = rc.QueryTimeout
	}
	if !opts.UseGraphReranking {
		opts.UseGraphReranking = rc.UseGraphReranking
	}
	return opts
}

// IndexAll rebuilds the index from scratch (§6 RAG.indexAll).
func (r *RAG) IndexAll(ctx context.Context) (*indexer.IndexResult, error) {
	result, err := r.indexer.IndexAll(ctx)
	if err != nil {
		return nil, err
	}
	r.invalidateCaches()
	return result, r.persist(ctx)
}

// IndexIncremental reconciles the index against the current vault state
// (§6 RAG.indexIncremental).
func (r *RAG) IndexIncremental(ctx context.Context) (*indexer.IndexResult, error) {
	result, err := r.indexer.IndexIncremental(ctx)
	if err != nil {
		return nil, err
	}
	r.invalidateCaches()
	return result, r.persist(ctx)
}

// IndexNote refreshes a single note (§6 RAG.indexNote).
func (r *RAG) IndexNote(ctx context.Context, notePath string) error {
	if err := r.indexer.IndexNote(ctx, notePath); err != nil {
		return err
	}
	r.invalidateCaches()
	return r.persist(ctx)
}

// invalidateCaches drops the graph analyzer's memoized result and this
// RAG's cached PageRank centrality, since either may reference notes that
// no longer exist after an index operation.
func (r *RAG) invalidateCaches() {
	r.analyzer.Invalidate()
	r.centralityMu.Lock()
	r.centrality = nil
	r.centralityMu.Unlock()
}

// persist writes the vector store to disk if it supports persistence
// (the in-memory backend is a no-op here).
func (r *RAG) persist(ctx context.Context) error {
	if hnsw, ok := r.store.(*vectorstore.HNSWStore); ok {
		if err := logging.EnsureLogDir(r.vaultPath); err != nil {
			return err
		}
		return hnsw.Save(storePath(r.vaultPath))
	}
	return nil
}

// lookupCentrality is the retriever.CentralityLookup backing graph
// reranking: it computes PageRank over the analyzer's last graph result,
// memoizing until the next index operation invalidates it.
func (r *RAG) lookupCentrality(notePath string) float64 {
	r.centralityMu.Lock()
	defer r.centralityMu.Unlock()

	if r.centrality == nil {
		stats, err := r.analyzer.Analyze(context.Background(), r.vaultPath, graph.Options{})
		if err != nil {
			r.logger.Warn("failed to compute graph centrality", "error", err)
			return 0
		}
		r.centrality = graph.PageRank(resolveForwardLinks(stats), graph.DefaultPageRankOptions())
	}
	return r.centrality[notePath]
}

// resolveForwardLinks turns stats.ForwardLinks (notePath -> raw wikilink
// target text, per §3's forwardLinks contract) into notePath -> target note
// path, the shape graph.PageRank expects. Targets that don't resolve to a
// known note (dangling links) are dropped; PageRank only operates over
// edges between real notes.
func resolveForwardLinks(stats *graph.NoteGraphStats) map[string][]string {
	titleIndex := make(map[string]string, len(stats.NoteMetadata))
	for _, m := range stats.NoteMetadata {
		titleIndex[wikilink.Normalize(m.Title)] = m.Path
		titleIndex[wikilink.Normalize(strings.TrimSuffix(filepath.Base(m.Path), ".md"))] = m.Path
	}

	resolved := make(map[string][]string, len(stats.ForwardLinks))
	for notePath, targets := range stats.ForwardLinks {
		var paths []string
		for _, target := range targets {
			if p, ok := titleIndex[wikilink.Normalize(target)]; ok {
				paths = append(paths, p)
			}
		}
		resolved[notePath] = paths
	}
	return resolved
}

// Close releases the vector store's and embedder's resources.
func (r *RAG) Close() error {
	var firstErr error
	if closer, ok := r.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if err := r.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
