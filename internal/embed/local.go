package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LocalConfig configures a LocalEmbedder talking to a local model server
// (e.g. Ollama) over HTTP.
type LocalConfig struct {
	Host           string
	Model          string
	Pooling        Pooling
	Dimensions     int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	MaxRetries     int
	SkipHealthCheck bool
}

// DefaultLocalHost is the conventional local model-server address.
const DefaultLocalHost = "http://localhost:11434"

// DefaultLocalModel is used when LocalConfig.Model is empty.
const DefaultLocalModel = "nomic-embed-text"

func (c *LocalConfig) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultLocalHost
	}
	if c.Model == "" {
		c.Model = DefaultLocalModel
	}
	if c.Pooling == "" {
		c.Pooling = PoolingMean
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
}

// DefaultMaxRetries bounds retry attempts for embedding requests.
const DefaultMaxRetries = 3

// LocalEmbedder embeds text via a local model server's HTTP API and
// L2-normalizes output vectors (§4.6). It uses the single vector the server
// returns per text as is; LocalConfig.Pooling is stored but not applied.
type LocalEmbedder struct {
	client *http.Client
	cfg    LocalConfig
	dims   int

	mu     sync.RWMutex
	closed bool

	events chan ProgressEvent
}

var _ Embedder = (*LocalEmbedder)(nil)
var _ Progress = (*LocalEmbedder)(nil)

// NewLocalEmbedder connects to a local model server, discovering the
// embedding dimension from a warmup request unless cfg.Dimensions is set
// (with SkipHealthCheck, no request is made and DefaultDimensions is used).
func NewLocalEmbedder(ctx context.Context, cfg LocalConfig) (*LocalEmbedder, error) {
	cfg.applyDefaults()

	e := &LocalEmbedder{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		dims:   cfg.Dimensions,
		events: make(chan ProgressEvent, 8),
	}

	if cfg.SkipHealthCheck {
		if e.dims == 0 {
			e.dims = DefaultDimensions
		}
		e.emit(ProgressEvent{State: StateReady})
		return e, nil
	}

	e.emit(ProgressEvent{State: StateLoading})

	checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	vec, err := e.requestEmbedding(checkCtx, cfg.Model, "warmup")
	if err != nil {
		e.emit(ProgressEvent{State: StateError, Err: err})
		return nil, fmt.Errorf("failed to reach local model server at %s: %w", cfg.Host, err)
	}

	if e.dims == 0 {
		e.dims = len(vec)
	}
	e.emit(ProgressEvent{State: StateReady})

	return e, nil
}

// Events exposes load/warm lifecycle notifications (§4.6).
func (e *LocalEmbedder) Events() <-chan ProgressEvent {
	return e.events
}

func (e *LocalEmbedder) emit(evt ProgressEvent) {
	select {
	case e.events <- evt:
	default:
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// requestEmbedding performs one HTTP call, retrying with exponential
// backoff via DownloadWithRetry.
func (e *LocalEmbedder) requestEmbedding(ctx context.Context, model, text string) ([]float32, error) {
	var result []float32

	retryErr := DownloadWithRetry(ctx, RetryConfig{
		MaxRetries:   e.cfg.MaxRetries,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
	}, func() error {
		vec, err := e.doRequest(ctx, model, text)
		if err != nil {
			return err
		}
		result = vec
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	return result, nil
}

func (e *LocalEmbedder) doRequest(ctx context.Context, model, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Host+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach local model server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d from model server: %s", resp.StatusCode, string(respBody))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	return parsed.Embedding, nil
}

// Embed generates an embedding for a single text.
func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	if strings.TrimSpace(text) == "" {
		return make([]float32, e.dims), nil
	}

	vec, err := e.requestEmbedding(ctx, e.cfg.Model, text)
	if err != nil {
		return nil, err
	}
	return normalizeVector(vec), nil
}

// EmbedQuery generates an embedding for a search query.
func (e *LocalEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.Embed(ctx, query)
}

// EmbedBatch generates embeddings for multiple texts, walking them in groups
// of DefaultBatchSize and sending one request per text, in order.
func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += DefaultBatchSize {
		end := start + DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		for i := start; i < end; i++ {
			vec, err := e.Embed(ctx, texts[i])
			if err != nil {
				return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
			}
			results[i] = vec
		}
	}

	return results, nil
}

// Dimensions returns the embedding dimension.
func (e *LocalEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the model identifier.
func (e *LocalEmbedder) ModelName() string {
	return e.cfg.Model
}

// Available reports whether the embedder can still serve requests.
func (e *LocalEmbedder) Available(ctx context.Context) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.closed
}

// Close releases resources.
func (e *LocalEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.events)
	}
	return nil
}
