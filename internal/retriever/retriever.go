package retriever

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vaultrag/core/internal/embed"
	"github.com/vaultrag/core/internal/errors"
	"github.com/vaultrag/core/internal/vectorstore"
)

// DefaultQueryTimeout is the per-query search timeout (§5).
const DefaultQueryTimeout = 30 * time.Second

// DefaultTopN is how many top candidates by finalScore are offered to the
// LLM reranker (§4.9 step 7).
const DefaultTopN = 10

// CentralityLookup resolves a note's cached PageRank centrality, rescaled
// to [0,1]. Retriever depends on this instead of *graph.Analyzer directly
// so tests can substitute a fixed map.
type CentralityLookup func(notePath string) float64

// Retriever implements the Hybrid Retriever's search operation (§4.9).
type Retriever struct {
	store      vectorstore.Store
	embedder   embed.Embedder
	reranker   Reranker
	centrality CentralityLookup
	telemetry  *Telemetry
	logger     *slog.Logger
}

// Config configures a Retriever.
type Config struct {
	Store      vectorstore.Store
	Embedder   embed.Embedder
	Reranker   Reranker // nil disables LLM reranking regardless of Options.UseLLMReranking
	Centrality CentralityLookup
	Logger     *slog.Logger
}

// New builds a Retriever. Reranker may be nil if LLM reranking is never
// used; Centrality may be nil if graph reranking is never used.
func New(cfg Config) *Retriever {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		store:      cfg.Store,
		embedder:   cfg.Embedder,
		reranker:   cfg.Reranker,
		centrality: cfg.Centrality,
		telemetry:  NewTelemetry(200),
		logger:     logger,
	}
}

// Telemetry exposes the retriever's per-query stage-timing recorder.
func (r *Retriever) Telemetry() *Telemetry {
	return r.telemetry
}

// applyDefaults fills zero-valued option fields with the spec's documented
// defaults (§4.9 "Options").
func applyDefaults(opts Options) Options {
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.MinScore == 0 {
		opts.MinScore = 0.3
	}
	if opts.VectorWeight == 0 && opts.KeywordWeight == 0 {
		opts.VectorWeight, opts.KeywordWeight = 0.7, 0.3
	}
	if opts.OversamplingFactor <= 0 {
		opts.OversamplingFactor = 3
	}
	if opts.BoostFactor == 0 {
		opts.BoostFactor = 0.2
	}
	if opts.MaxVariants <= 0 {
		opts.MaxVariants = DefaultMaxVariants
	}
	if opts.BM25K1 == 0 {
		opts.BM25K1 = 1.2
	}
	if opts.BM25B == 0 {
		opts.BM25B = 0.75
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}
	return opts
}

// Search implements the full §4.9 algorithm: expand, retrieve, aggregate,
// score, rerank, sort, truncate.
func (r *Retriever) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	overallStart := time.Now()
	opts = applyDefaults(opts)

	ctx, cancel := context.WithTimeout(ctx, opts.QueryTimeout)
	defer cancel()

	event := QueryEvent{Query: query, Mode: opts.Mode}

	// Step 1: expand query.
	expandStart := time.Now()
	var expanded ExpandedQuery
	if opts.UseQueryExpansion {
		expanded = NewExpander(opts.MaxVariants).Expand(query)
	} else {
		expanded = ExpandedQuery{Original: query, Keywords: keywordsFromQuery(query)}
	}
	event.ExpandLatency = time.Since(expandStart)

	candidateLimit := opts.TopK * opts.OversamplingFactor

	// Steps 2 and 3: vector and keyword retrieval run concurrently; both
	// are CPU/IO suspension points and independent of each other (§5).
	var vecResults []vectorstore.Result
	var vecErr error
	var keywordScores map[string]float64

	g, gctx := errgroup.WithContext(ctx)

	vectorStart := time.Now()
	g.Go(func() error {
		defer func() { event.VectorLatency = time.Since(vectorStart) }()
		if opts.Mode == ModeKeyword {
			return nil
		}
		queryVec, err := r.embedder.EmbedQuery(gctx, expanded.Original)
		if err != nil {
			vecErr = errors.ModelInferenceErrorf(err, "failed to embed query")
			return nil
		}
		results, err := r.store.Search(gctx, queryVec, candidateLimit)
		if err != nil {
			vecErr = err
			return nil
		}
		vecResults = results
		return nil
	})

	keywordStart := time.Now()
	g.Go(func() error {
		defer func() { event.KeywordLatency = time.Since(keywordStart) }()
		if opts.Mode == ModeSemantic {
			return nil
		}
		keywordScores = r.scoreKeywords(expanded.Keywords, opts)
		return nil
	})

	_ = g.Wait() // retrieval goroutines report failures via vecErr, never a group error
	if ctx.Err() != nil {
		return nil, errors.TimeoutErrorf(ctx.Err(), "search timed out")
	}
	if vecErr != nil && opts.Mode != ModeKeyword {
		return nil, vecErr
	}

	// Step 4: aggregate to notes. In keyword-only mode there are no vector
	// candidates to anchor on, so every scored document becomes a
	// candidate instead.
	var candidates []chunkCandidate
	if opts.Mode == ModeKeyword {
		docs := r.store.AllDocuments()
		candidates = make([]chunkCandidate, 0, len(docs))
		for _, d := range docs {
			if score := keywordScores[d.ID]; score > 0 {
				candidates = append(candidates, chunkCandidate{doc: d, keywordScore: score})
			}
		}
	} else {
		candidates = make([]chunkCandidate, 0, len(vecResults))
		for _, v := range vecResults {
			candidates = append(candidates, chunkCandidate{
				doc:          v.Metadata,
				vectorScore:  float64(v.Score),
				keywordScore: keywordScores[v.ID],
			})
		}
	}
	notes := aggregateToNotes(candidates, opts)

	// Step 5: hybrid baseScore + confidence.
	results := make([]Result, 0, len(notes))
	for _, agg := range notes {
		results = append(results, Result{
			NotePath:   agg.notePath,
			Title:      agg.title,
			BaseScore:  baseScore(agg, opts),
			FinalScore: baseScore(agg, opts),
			Confidence: confidence(agg, opts),
			Chunks:     agg.chunks,
		})
	}

	// Step 6: graph reranking.
	graphStart := time.Now()
	if opts.UseGraphReranking && r.centrality != nil {
		for i := range results {
			c := r.centrality(results[i].NotePath)
			results[i].Centrality = c
			results[i].FinalScore = results[i].BaseScore * (1 + opts.BoostFactor*c)
		}
	}
	event.GraphLatency = time.Since(graphStart)

	// Step 7: optional LLM reranking pass over the top-N by finalScore.
	llmStart := time.Now()
	if opts.UseLLMReranking && r.reranker != nil && len(results) > 0 {
		sortByFinalScore(results)
		results = r.applyLLMRerank(ctx, expanded.Original, results)
	}
	event.LLMLatency = time.Since(llmStart)

	// Step 8: sort and truncate.
	sortByFinalScore(results)
	if len(results) > opts.TopK {
		results = results[:opts.TopK]
	}

	event.ResultCount = len(results)
	event.TotalLatency = time.Since(overallStart)
	r.telemetry.Record(event)

	return results, nil
}

// scoreKeywords builds an in-process BM25 approximation over every document
// in the store (§4.9 step 3). Since keyword scoring needs the
// same candidate documents the vector search returns, but that search may
// not have completed yet when this runs concurrently, the retriever scores
// against every document currently in the store's working set instead:
// callers then intersect the two score maps via chunk ID.
func (r *Retriever) scoreKeywords(keywords []string, opts Options) map[string]float64 {
	docs := r.store.AllDocuments()
	if len(docs) == 0 {
		return nil
	}

	contents := make(map[string]string, len(docs))
	for _, d := range docs {
		contents[d.ID] = d.Content
	}

	corpus := vectorstore.NewBM25Corpus(vectorstore.BM25Config{K1: opts.BM25K1, B: opts.BM25B}, contents)
	return corpus.ScoreAll(keywords)
}

// applyLLMRerank runs the §4.10 LLM reranker over the top-N results and
// folds its score into finalScore (§4.9 step 7): "combined score becomes
// 0.7·(llm/10) + 0.3·originalFinal". Remaining candidates keep llm=0 and
// their pre-LLM finalScore.
func (r *Retriever) applyLLMRerank(ctx context.Context, query string, results []Result) []Result {
	topN := DefaultTopN
	if topN > len(results) {
		topN = len(results)
	}

	candidates := make([]RerankCandidate, topN)
	for i := 0; i < topN; i++ {
		candidates[i] = RerankCandidate{Index: i, Title: results[i].Title, Content: chunkText(results[i])}
	}

	evals, err := r.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		r.logger.Warn("llm reranking failed, falling back to original order", "error", err)
		for i := 0; i < topN; i++ {
			results[i].LLMReason = "LLM reranking failed"
		}
		return results
	}

	for _, e := range evals {
		if e.Index < 0 || e.Index >= topN {
			continue
		}
		original := results[e.Index].FinalScore
		results[e.Index].LLMScore = e.Score
		results[e.Index].LLMReason = e.Reason
		results[e.Index].FinalScore = 0.7*(e.Score/10) + 0.3*original
	}
	return results
}

// chunkText returns a result's best chunk content for the rerank prompt.
func chunkText(r Result) string {
	if len(r.Chunks) == 0 {
		return ""
	}
	return r.Chunks[0].Content
}

// sortByFinalScore sorts results by finalScore desc, ties broken by
// notePath ascending for deterministic output (§5 "Ordering guarantees").
func sortByFinalScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		return results[i].NotePath < results[j].NotePath
	})
}

// IsAnswerable applies the §4.9 "Answerability rule": the Top-1 result's
// baseScore, not finalScore, decides whether the query is answerable.
func IsAnswerable(results []Result, minScore float64) bool {
	if len(results) == 0 {
		return false
	}
	return results[0].BaseScore >= minScore
}

// CentralityFromGraph adapts a *graph.NoteGraphStats-derived PageRank map
// into a CentralityLookup.
func CentralityFromGraph(scores map[string]float64) CentralityLookup {
	return func(notePath string) float64 {
		return scores[notePath]
	}
}
