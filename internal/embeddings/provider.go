package embeddings

import (
	"context"
	"fmt"
	"strings"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Provider is the interface for embedding providers.
type Provider interface {
	Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Provider is the provider type: "fastembed", "tei" or "none".
	Provider string `koanf:"provider"`
	// Model is the embedding model name.
	Model string `koanf:"model"`
	// BaseURL is the TEI URL (only used for TEI provider).
	BaseURL string `koanf:"base_url"`
	// CacheDir is the model cache directory (only used for FastEmbed).
	CacheDir string `koanf:"cache_dir"`
}

// DefaultConfig returns the default embeddings configuration.
func DefaultConfig() Config {
	return Config{
		Provider: "fastembed",
		Model:    "BAAI/bge-small-en-v1.5",
	}
}

// detectDimensionFromModel returns the embedding dimension for a model name.
// Falls back to 384 if model is unknown.
func detectDimensionFromModel(model string) int {
	if dim, ok := fastEmbedModelDimension(model); ok {
		return dim
	}
	switch {
	case strings.Contains(model, "base"):
		return 768
	case strings.Contains(model, "large"):
		return 1024
	case strings.Contains(model, "small"), strings.Contains(model, "mini"):
		return 384
	default:
		return 384
	}
}

// NewProvider creates an embedding provider based on the configuration.
// The "none" provider returns nil without error; callers that receive a
// nil provider fall back to lexical-only similarity.
func NewProvider(cfg Config) (Provider, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultConfig().Model
	}
	switch cfg.Provider {
	case "fastembed", "":
		return NewFastEmbedProvider(FastEmbedConfig{
			Model:    model,
			CacheDir: cfg.CacheDir,
		})
	case "tei":
		svc, err := NewService(ServiceConfig{
			BaseURL: cfg.BaseURL,
			Model:   model,
		})
		if err != nil {
			return nil, err
		}
		return &teiProvider{Service: svc, dimension: detectDimensionFromModel(model)}, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// teiProvider wraps Service to implement Provider interface.
type teiProvider struct {
	*Service
	dimension int
}

// Dimension returns the embedding dimension based on the configured model.
func (t *teiProvider) Dimension() int {
	return t.dimension
}

// Close is a no-op for TEI since it uses HTTP.
func (t *teiProvider) Close() error {
	return nil
}
