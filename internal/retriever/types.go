// Package retriever implements the Hybrid Retriever (§4.9): query
// expansion, parallel vector/keyword candidate retrieval, per-note
// aggregation, a weighted hybrid baseScore, optional graph-centrality and
// LLM reranking passes, and the final finalScore ordering.
package retriever

import "time"

// Mode selects the scoring mixture used to compute baseScore.
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
	ModeHybrid   Mode = "hybrid"
)

// Options recognized by Search (§4.9 "Options").
type Options struct {
	Mode               Mode
	TopK               int
	MinScore           float64
	UseGraphReranking  bool
	UseLLMReranking    bool
	UseQueryExpansion  bool
	VectorWeight       float64
	KeywordWeight      float64
	OversamplingFactor int
	BoostFactor        float64
	MaxVariants        int
	BM25K1             float64
	BM25B              float64
	QueryTimeout       time.Duration
}

// Highlight marks a matched span within a returned snippet.
type Highlight struct {
	Start int
	End   int
}

// Chunk is one retrieved snippet belonging to a note result.
type Chunk struct {
	Content     string
	ChunkIndex  int
	VectorScore float64
	KeywordScore float64
	Highlights  []Highlight
}

// Result is one ranked note returned by Search (§6 RAG.search output shape).
type Result struct {
	NotePath   string
	Title      string
	BaseScore  float64
	FinalScore float64
	Confidence float64
	Centrality float64
	LLMScore   float64
	LLMReason  string
	Chunks     []Chunk
}

// ExpandedQuery is the output of query expansion (§4.9 step 1).
type ExpandedQuery struct {
	Original string
	Variants []string
	Keywords []string
}

// noteAggregate accumulates chunk-level scores into a per-note candidate
// (§4.9 step 4) before the hybrid score is computed.
type noteAggregate struct {
	notePath    string
	title       string
	bestVector  float64
	bestKeyword float64
	chunks      []Chunk // ordered by chunk score desc, capped to topChunksPerNote
}

// topChunksPerNote bounds how many chunks are retained per note aggregate.
const topChunksPerNote = 3
