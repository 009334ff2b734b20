// Package vectordb stores passages and their embeddings and answers nearest
// neighbour queries by cosine distance.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gitacompanion/companion/engine/passage"
	"github.com/gitacompanion/companion/pkg/config"
)

// Provider enumerates supported passage store backends.
type Provider string

const (
	ProviderMemory   Provider = "memory"
	ProviderPGVector Provider = "pgvector"
)

var (
	ErrNotFound          = errors.New("vectordb: passage not found")
	ErrDimensionMismatch = errors.New("vectordb: vector dimension mismatch")
	errInvalidDimension  = errors.New("vectordb: dimension must be greater than zero")
	errMissingDSN        = errors.New("vectordb: dsn is required for pgvector")
)

// Store is the passage index used by retrieval.
type Store interface {
	// Upsert inserts or replaces passages by id. Passages without an embedding
	// are stored but excluded from Search.
	Upsert(ctx context.Context, passages []passage.Passage) error
	// Search returns up to k embedded passages ordered by ascending cosine distance.
	Search(ctx context.Context, query []float32, k int) ([]passage.Passage, error)
	// All returns every passage in canonical order.
	All(ctx context.Context) ([]passage.Passage, error)
	Get(ctx context.Context, id int) (*passage.Passage, error)
	Count(ctx context.Context) (int, error)
	Close(ctx context.Context) error
}

// Config captures connection details for a passage store.
type Config struct {
	Provider    Provider
	DSN         string
	Table       string
	Dimension   int
	EnsureIndex bool
}

// FromAppConfig maps the database section of the service configuration for
// vectors of the given dimension.
func FromAppConfig(cfg *config.DatabaseConfig, dimension int) *Config {
	return &Config{
		DSN:         cfg.ConnString.Value(),
		Table:       cfg.Table,
		Dimension:   dimension,
		EnsureIndex: cfg.EnsureIndex,
	}
}

// New instantiates the configured store. An empty DSN selects the memory store.
func New(ctx context.Context, cfg *Config) (Store, error) {
	if cfg == nil {
		return nil, errors.New("vectordb: config is required")
	}
	if cfg.Dimension <= 0 {
		return nil, errInvalidDimension
	}
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderMemory
		if strings.TrimSpace(cfg.DSN) != "" {
			provider = ProviderPGVector
		}
	}
	switch provider {
	case ProviderMemory:
		return NewMemoryStore(cfg.Dimension), nil
	case ProviderPGVector:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, errMissingDSN
		}
		return newPGStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("vectordb: provider %q is not supported", provider)
	}
}
