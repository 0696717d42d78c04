// Package embed provides the Embedder abstraction (§4.6): a stateful
// service with a load/warm phase and embed/embedBatch/embedQuery
// operations, backed by either a local HTTP model server or a
// dependency-free hash-based fallback.
package embed

import (
	"context"
	"math"
)

// Sizing and cache defaults (§4.6).
const (
	MinBatchSize     = 1
	MaxBatchSize     = 256
	DefaultBatchSize = 32

	DefaultQueryCacheSize = 100

	// DefaultDimensions is the embedding dimension for the default local model.
	DefaultDimensions = 768

	// StaticDimensions is the embedding dimension for the hash-based fallback.
	StaticDimensions = 256
)

// Pooling selects how per-token vectors are combined into one embedding.
type Pooling string

const (
	PoolingCLS  Pooling = "cls"
	PoolingMean Pooling = "mean"
)

// State is a stage in an embedder's load/warm lifecycle (§4.6).
type State string

const (
	StateDownloading State = "downloading"
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StateError       State = "error"
)

// ProgressEvent reports load/warm progress to callers that care (CLI
// progress bars, structured logs).
type ProgressEvent struct {
	State      State
	Downloaded int64
	Total      int64
	Err        error
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, batching
	// internally to an implementation-defined batch size.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query. Implementations
	// may route this through a query-specific cache.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases resources held by the embedder.
	Close() error
}

// Progress is implemented by embedders that report load/warm lifecycle
// events on a channel (§4.6).
type Progress interface {
	Events() <-chan ProgressEvent
}

// normalizeVector L2-normalizes a vector to unit length, returning it
// unchanged if it is the zero vector.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
