package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

type Provider string

const (
	ProviderHash   Provider = "hash"
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// Config selects and tunes an embedder.
type Config struct {
	Provider  Provider
	Model     string
	Dimension int
	BatchSize int
	CacheSize int
	BaseURL   string
	APIKey    string
}

// FromAppConfig maps the embedding section of the service configuration.
func FromAppConfig(cfg *config.EmbeddingConfig) *Config {
	return &Config{
		Provider:  Provider(cfg.Provider),
		Model:     cfg.Model,
		Dimension: cfg.Dimension,
		BatchSize: cfg.BatchSize,
		CacheSize: cfg.CacheSize,
		BaseURL:   cfg.BaseURL,
		APIKey:    cfg.APIKey.Value(),
	}
}

var (
	ErrInvalidDimension  = errors.New("embedder dimension must be greater than zero")
	ErrDimensionMismatch = errors.New("embedder returned a vector of unexpected dimension")
	ErrUnknownProvider   = errors.New("embedder provider is not supported")
)

// New builds the configured embedder. Model-backed providers are wrapped in
// an Adapter that validates dimensions and caches query vectors.
func New(cfg *Config) (Embedder, error) {
	if cfg == nil {
		return nil, errors.New("embedder config is required")
	}
	if cfg.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	switch cfg.Provider {
	case ProviderHash, "":
		return NewHash(cfg.Dimension), nil
	case ProviderOllama:
		impl, err := buildOllama(cfg)
		if err != nil {
			return nil, err
		}
		return Wrap(cfg, impl)
	case ProviderOpenAI:
		impl, err := buildOpenAI(cfg)
		if err != nil {
			return nil, err
		}
		return Wrap(cfg, impl)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// NewWithFallback returns the configured embedder, or the hash embedder of
// the same dimension when the provider cannot be constructed.
func NewWithFallback(ctx context.Context, cfg *Config) Embedder {
	emb, err := New(cfg)
	if err == nil {
		return emb
	}
	dim := 384
	if cfg != nil && cfg.Dimension > 0 {
		dim = cfg.Dimension
	}
	logger.FromContext(ctx).Warn("Embedding provider unavailable, using hash embeddings", "error", err, "dimension", dim)
	return NewHash(dim)
}

func embedderOptions(cfg *Config) []embeddings.Option {
	opts := []embeddings.Option{embeddings.WithStripNewLines(true)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	return opts
}

func buildOllama(cfg *Config) (embeddings.Embedder, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if url := strings.TrimSpace(cfg.BaseURL); url != "" {
		opts = append(opts, ollama.WithServerURL(url))
	}
	client, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to initialize ollama client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embedderOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to construct ollama embedder: %w", err)
	}
	return emb, nil
}

func buildOpenAI(cfg *Config) (embeddings.Embedder, error) {
	opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if url := strings.TrimSpace(cfg.BaseURL); url != "" {
		opts = append(opts, openai.WithBaseURL(url))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to initialize openai client: %w", err)
	}
	emb, err := embeddings.NewEmbedder(client, embedderOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("embedder: failed to construct openai embedder: %w", err)
	}
	return emb, nil
}
