package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderType selects which embedder backend to construct.
type ProviderType string

const (
	// ProviderLocal talks to a local model server over HTTP (default).
	ProviderLocal ProviderType = "local"

	// ProviderStatic uses hash-based embeddings; no network, no model
	// download, reduced semantic quality. Used as a fallback when no
	// local model server is reachable.
	ProviderStatic ProviderType = "static"
)

// NewEmbedder creates an embedder for the given provider and model.
//
// The VAULTRAG_EMBEDDINGS_PROVIDER environment variable overrides provider
// selection ("local" or "static"); VAULTRAG_EMBEDDINGS_MODEL overrides the
// model name. Query embedding caching is enabled by default; set
// VAULTRAG_EMBED_CACHE=false to disable it.
func NewEmbedder(ctx context.Context, provider ProviderType, model string) (Embedder, error) {
	if envProvider := os.Getenv("VAULTRAG_EMBEDDINGS_PROVIDER"); envProvider != "" {
		provider = ParseProvider(envProvider)
	}
	if envModel := os.Getenv("VAULTRAG_EMBEDDINGS_MODEL"); envModel != "" {
		model = envModel
	}

	var embedder Embedder
	var err error

	switch provider {
	case ProviderStatic:
		embedder = NewStaticEmbedder()

	case ProviderLocal:
		embedder, err = newLocalWithFallback(ctx, model)

	default:
		embedder, err = newLocalWithFallback(ctx, model)
	}

	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}

	return embedder, nil
}

// isCacheDisabled checks if embedding cache is disabled via environment.
func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("VAULTRAG_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// newLocalWithFallback connects to the local model server, falling back to
// the static embedder if it is unreachable so that indexing still
// completes (degraded to lexical-only quality until a model server comes
// online).
func newLocalWithFallback(ctx context.Context, model string) (Embedder, error) {
	cfg := LocalConfig{Model: model}

	if host := os.Getenv("VAULTRAG_EMBEDDINGS_HOST"); host != "" {
		cfg.Host = host
	}
	if timeoutStr := os.Getenv("VAULTRAG_EMBEDDINGS_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	embedder, err := NewLocalEmbedder(ctx, cfg)
	if err != nil {
		return NewStaticEmbedder(), nil
	}
	return embedder, nil
}

// NewDefaultEmbedder creates a static embedder, for callers that need an
// embedder with no setup and no possibility of failure (tests, dry runs).
func NewDefaultEmbedder(ctx context.Context) (Embedder, error) {
	return NewEmbedder(ctx, ProviderStatic, "")
}

// ParseProvider converts a string to ProviderType, defaulting to local.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static":
		return ProviderStatic
	case "local", "":
		return ProviderLocal
	default:
		return ProviderLocal
	}
}

// String returns the string representation of ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// ValidProviders returns all valid provider names.
func ValidProviders() []string {
	return []string{string(ProviderLocal), string(ProviderStatic)}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}

// EmbedderInfo summarizes an embedder's identity and readiness.
type EmbedderInfo struct {
	Provider   ProviderType
	Model      string
	Dimensions int
	Available  bool
}

// GetInfo returns information about an embedder, unwrapping a CachedEmbedder
// to inspect the underlying provider.
func GetInfo(ctx context.Context, embedder Embedder) EmbedderInfo {
	info := EmbedderInfo{
		Model:      embedder.ModelName(),
		Dimensions: embedder.Dimensions(),
		Available:  embedder.Available(ctx),
	}

	inner := embedder
	if cached, ok := embedder.(*CachedEmbedder); ok {
		inner = cached.Inner()
	}

	switch inner.(type) {
	case *LocalEmbedder:
		info.Provider = ProviderLocal
	default:
		info.Provider = ProviderStatic
	}

	return info
}

// MustNewEmbedder creates an embedder and panics on failure. Use only in
// tests or initialization code where failure is fatal.
func MustNewEmbedder(ctx context.Context, provider ProviderType, model string) Embedder {
	embedder, err := NewEmbedder(ctx, provider, model)
	if err != nil {
		panic(fmt.Sprintf("failed to create embedder: %v", err))
	}
	return embedder
}
