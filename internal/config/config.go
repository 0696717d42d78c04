// Package config loads and validates the retrieval core's configuration,
// mirroring the three-tier precedence the teacher uses for its own config:
// hardcoded defaults, then a YAML file, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete retrieval-core configuration (§10.3).
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Vault      VaultConfig      `yaml:"vault" json:"vault"`
	Chunker    ChunkerConfig    `yaml:"chunker" json:"chunker"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" json:"embeddings"`
	VectorStore VectorStoreConfig `yaml:"vector_store" json:"vector_store"`
	Retriever  RetrieverConfig  `yaml:"retriever" json:"retriever"`
	Reranker   RerankerConfig   `yaml:"reranker" json:"reranker"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// VaultConfig configures which paths within the vault are considered.
type VaultConfig struct {
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// ChunkerConfig configures the Document Chunker (§4.5).
type ChunkerConfig struct {
	TargetSizeChars int `yaml:"target_size_chars" json:"target_size_chars"`
	OverlapChars    int `yaml:"overlap_chars" json:"overlap_chars"`
}

// EmbeddingsConfig configures the Embedder (§4.6).
type EmbeddingsConfig struct {
	Provider  string `yaml:"provider" json:"provider"`
	Model     string `yaml:"model" json:"model"`
	CacheDir  string `yaml:"cache_dir" json:"cache_dir"`
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
	QueryCacheSize int `yaml:"query_cache_size" json:"query_cache_size"`
	ModelDownloadTimeout time.Duration `yaml:"model_download_timeout" json:"model_download_timeout"`
}

// VectorStoreConfig configures the VectorStore (§4.7).
type VectorStoreConfig struct {
	Backend        string `yaml:"backend" json:"backend"` // "hnsw" or "memory"
	M              int    `yaml:"m" json:"m"`
	EfConstruction int    `yaml:"ef_construction" json:"ef_construction"`
	EfSearch       int    `yaml:"ef_search" json:"ef_search"`
	// UseKeywordIndex is loaded and merged but not read by any component;
	// the bleve-backed KeywordIndex is not wired into retrieval.
	UseKeywordIndex bool `yaml:"use_keyword_index" json:"use_keyword_index"`
	// UseSQLiteMetadata persists IndexMetadata in SQLite instead of the JSON
	// file, for larger vaults.
	UseSQLiteMetadata bool `yaml:"use_sqlite_metadata" json:"use_sqlite_metadata"`
}

// RetrieverConfig configures the Hybrid Retriever (§4.9).
type RetrieverConfig struct {
	Mode               string  `yaml:"mode" json:"mode"`
	TopK               int     `yaml:"top_k" json:"top_k"`
	MinScore           float64 `yaml:"min_score" json:"min_score"`
	VectorWeight       float64 `yaml:"vector_weight" json:"vector_weight"`
	KeywordWeight      float64 `yaml:"keyword_weight" json:"keyword_weight"`
	OversamplingFactor int     `yaml:"oversampling_factor" json:"oversampling_factor"`
	UseQueryExpansion  bool    `yaml:"use_query_expansion" json:"use_query_expansion"`
	MaxVariants        int     `yaml:"max_variants" json:"max_variants"`
	BM25K1             float64 `yaml:"bm25_k1" json:"bm25_k1"`
	BM25B              float64 `yaml:"bm25_b" json:"bm25_b"`
	UseGraphReranking  bool    `yaml:"use_graph_reranking" json:"use_graph_reranking"`
	BoostFactor        float64 `yaml:"boost_factor" json:"boost_factor"`
	QueryTimeout       time.Duration `yaml:"query_timeout" json:"query_timeout"`
}

// RerankerConfig configures the optional LLM Reranker (§4.10).
type RerankerConfig struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	Model        string        `yaml:"model" json:"model"`
	TopN         int           `yaml:"top_n" json:"top_n"`
	SnippetChars int           `yaml:"snippet_chars" json:"snippet_chars"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig configures ambient logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// defaultVaultExcludes are always excluded when walking a vault (§6).
var defaultVaultExcludes = []string{
	".git",
	"node_modules",
}

// NewConfig returns a Config populated with the spec's documented defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Vault: VaultConfig{
			Exclude: append([]string{}, defaultVaultExcludes...),
		},
		Chunker: ChunkerConfig{
			TargetSizeChars: 1000,
			OverlapChars:    200,
		},
		Embeddings: EmbeddingsConfig{
			Provider:             "static",
			Model:                "minilm-l6-v2",
			BatchSize:            32,
			QueryCacheSize:       100,
			ModelDownloadTimeout: 10 * time.Minute,
		},
		VectorStore: VectorStoreConfig{
			Backend:           "hnsw",
			M:                 32,
			EfConstruction:    128,
			EfSearch:          64,
			UseKeywordIndex:   false,
			UseSQLiteMetadata: false,
		},
		Retriever: RetrieverConfig{
			Mode:               "hybrid",
			TopK:               10,
			MinScore:           0.3,
			VectorWeight:       0.7,
			KeywordWeight:      0.3,
			OversamplingFactor: 3,
			UseQueryExpansion:  true,
			MaxVariants:        3,
			BM25K1:             1.2,
			BM25B:              0.75,
			UseGraphReranking:  false,
			BoostFactor:        0.2,
			QueryTimeout:       30 * time.Second,
		},
		Reranker: RerankerConfig{
			Enabled:      false,
			Endpoint:     "http://localhost:11434",
			Model:        "qwen3:0.6b",
			TopN:         10,
			SnippetChars: 500,
			Timeout:      10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration for vaultDir: defaults, then a `.vaultrag.yaml`
// file in vaultDir (if present), then VAULTRAG_* environment overrides.
func Load(vaultDir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(vaultDir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".vaultrag.yaml", ".vaultrag.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Vault.Exclude) > 0 {
		c.Vault.Exclude = append(c.Vault.Exclude, other.Vault.Exclude...)
	}
	if other.Chunker.TargetSizeChars != 0 {
		c.Chunker.TargetSizeChars = other.Chunker.TargetSizeChars
	}
	if other.Chunker.OverlapChars != 0 {
		c.Chunker.OverlapChars = other.Chunker.OverlapChars
	}
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.CacheDir != "" {
		c.Embeddings.CacheDir = other.Embeddings.CacheDir
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.QueryCacheSize != 0 {
		c.Embeddings.QueryCacheSize = other.Embeddings.QueryCacheSize
	}
	if other.Embeddings.ModelDownloadTimeout != 0 {
		c.Embeddings.ModelDownloadTimeout = other.Embeddings.ModelDownloadTimeout
	}
	if other.VectorStore.Backend != "" {
		c.VectorStore.Backend = other.VectorStore.Backend
	}
	if other.VectorStore.M != 0 {
		c.VectorStore.M = other.VectorStore.M
	}
	if other.VectorStore.EfConstruction != 0 {
		c.VectorStore.EfConstruction = other.VectorStore.EfConstruction
	}
	if other.VectorStore.EfSearch != 0 {
		c.VectorStore.EfSearch = other.VectorStore.EfSearch
	}
	c.VectorStore.UseKeywordIndex = c.VectorStore.UseKeywordIndex || other.VectorStore.UseKeywordIndex
	c.VectorStore.UseSQLiteMetadata = c.VectorStore.UseSQLiteMetadata || other.VectorStore.UseSQLiteMetadata
	if other.Retriever.Mode != "" {
		c.Retriever.Mode = other.Retriever.Mode
	}
	if other.Retriever.TopK != 0 {
		c.Retriever.TopK = other.Retriever.TopK
	}
	if other.Retriever.MinScore != 0 {
		c.Retriever.MinScore = other.Retriever.MinScore
	}
	if other.Retriever.VectorWeight != 0 {
		c.Retriever.VectorWeight = other.Retriever.VectorWeight
	}
	if other.Retriever.KeywordWeight != 0 {
		c.Retriever.KeywordWeight = other.Retriever.KeywordWeight
	}
	if other.Retriever.OversamplingFactor != 0 {
		c.Retriever.OversamplingFactor = other.Retriever.OversamplingFactor
	}
	if other.Retriever.MaxVariants != 0 {
		c.Retriever.MaxVariants = other.Retriever.MaxVariants
	}
	if other.Retriever.BM25K1 != 0 {
		c.Retriever.BM25K1 = other.Retriever.BM25K1
	}
	if other.Retriever.BM25B != 0 {
		c.Retriever.BM25B = other.Retriever.BM25B
	}
	c.Retriever.UseGraphReranking = c.Retriever.UseGraphReranking || other.Retriever.UseGraphReranking
	if other.Retriever.BoostFactor != 0 {
		c.Retriever.BoostFactor = other.Retriever.BoostFactor
	}
	if other.Retriever.QueryTimeout != 0 {
		c.Retriever.QueryTimeout = other.Retriever.QueryTimeout
	}
	if other.Reranker.Endpoint != "" {
		c.Reranker.Endpoint = other.Reranker.Endpoint
	}
	if other.Reranker.Model != "" {
		c.Reranker.Model = other.Reranker.Model
	}
	if other.Reranker.TopN != 0 {
		c.Reranker.TopN = other.Reranker.TopN
	}
	if other.Reranker.SnippetChars != 0 {
		c.Reranker.SnippetChars = other.Reranker.SnippetChars
	}
	if other.Reranker.Timeout != 0 {
		c.Reranker.Timeout = other.Reranker.Timeout
	}
	c.Reranker.Enabled = c.Reranker.Enabled || other.Reranker.Enabled
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies VAULTRAG_* environment variable overrides,
// the highest-precedence tier.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VAULTRAG_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retriever.VectorWeight = f
		}
	}
	if v := os.Getenv("VAULTRAG_KEYWORD_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Retriever.KeywordWeight = f
		}
	}
	if v := os.Getenv("VAULTRAG_MODE"); v != "" {
		c.Retriever.Mode = v
	}
	if v := os.Getenv("VAULTRAG_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("VAULTRAG_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("VAULTRAG_RERANKER_ENDPOINT"); v != "" {
		c.Reranker.Endpoint = v
	}
	if v := os.Getenv("VAULTRAG_RERANKER_ENABLED"); v != "" {
		c.Reranker.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("VAULTRAG_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VAULTRAG_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			_ = n // validated, consumed by the indexer via runtime.NumCPU fallback otherwise
		}
	}
}

// IndexWorkers returns the configured number of parallel embedding workers,
// defaulting to the host's CPU count (§5 "parallel threads for embedding").
func IndexWorkers() int {
	if v := os.Getenv("VAULTRAG_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}

// Validate checks the configuration for out-of-range values (§7 Validation).
func (c *Config) Validate() error {
	switch c.Retriever.Mode {
	case "semantic", "keyword", "hybrid":
	default:
		return fmt.Errorf("retriever.mode must be one of semantic|keyword|hybrid, got %q", c.Retriever.Mode)
	}
	if c.Retriever.TopK <= 0 {
		return fmt.Errorf("retriever.top_k must be positive, got %d", c.Retriever.TopK)
	}
	if c.Retriever.MinScore < 0 || c.Retriever.MinScore > 1 {
		return fmt.Errorf("retriever.min_score must be in [0,1], got %f", c.Retriever.MinScore)
	}
	if c.Chunker.OverlapChars >= c.Chunker.TargetSizeChars {
		return fmt.Errorf("chunker.overlap_chars (%d) must be smaller than chunker.target_size_chars (%d)",
			c.Chunker.OverlapChars, c.Chunker.TargetSizeChars)
	}
	return nil
}
