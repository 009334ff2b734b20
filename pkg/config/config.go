package config

import (
	"time"
)

// Config represents the complete configuration for the companion service.
type Config struct {
	Server     ServerConfig     `koanf:"server"     validate:"required"`
	Runtime    RuntimeConfig    `koanf:"runtime"    validate:"required"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Cache      CacheConfig      `koanf:"cache"      validate:"required"`
	Embedding  EmbeddingConfig  `koanf:"embedding"  validate:"required"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"  validate:"required"`
	LLM        LLMConfig        `koanf:"llm"        validate:"required"`
	Providers  ProvidersConfig  `koanf:"providers"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host        string          `koanf:"host"         validate:"required"        env:"SERVER_HOST"`
	Port        int             `koanf:"port"         validate:"min=1,max=65535" env:"SERVER_PORT"`
	Timeout     time.Duration   `koanf:"timeout"                                 env:"SERVER_TIMEOUT"`
	APIKey      SensitiveString `koanf:"api_key"                                 env:"CLIENT_API_KEY"      sensitive:"true"`
	CORSOrigins []string        `koanf:"cors_origins"                            env:"SERVER_CORS_ORIGINS"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"RUNTIME_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error"          env:"RUNTIME_LOG_LEVEL"`
}

// DatabaseConfig points at the pgvector-enabled passage store. An empty
// connection string selects the in-memory store. FavoritesDB is a sqlite
// path; empty keeps favorites in memory.
type DatabaseConfig struct {
	ConnString  SensitiveString `koanf:"conn_string"  env:"DATABASE_URL"        sensitive:"true"`
	Table       string          `koanf:"table"        env:"DATABASE_TABLE"      validate:"required"`
	EnsureIndex bool            `koanf:"ensure_index" env:"DATABASE_ENSURE_INDEX"`
	FavoritesDB string          `koanf:"favorites_db" env:"FAVORITES_DB"`
}

// RedisConfig is shared by the response cache and the rate limiter.
type RedisConfig struct {
	URL    SensitiveString `koanf:"url"    env:"REDIS_URL"    sensitive:"true"`
	Prefix string          `koanf:"prefix" env:"REDIS_PREFIX"`
}

// CacheConfig controls response memoization.
type CacheConfig struct {
	TTL     time.Duration `koanf:"ttl"     validate:"min=0"                 env:"CACHE_TTL"`
	Backend string        `koanf:"backend" validate:"oneof=memory redis"    env:"CACHE_BACKEND"`
}

// EmbeddingConfig selects the query/passage embedder.
type EmbeddingConfig struct {
	Provider  string          `koanf:"provider"   validate:"oneof=hash ollama openai" env:"EMBEDDING_PROVIDER"`
	Model     string          `koanf:"model"                                          env:"EMBEDDING_MODEL"`
	Dimension int             `koanf:"dimension"  validate:"min=1"                    env:"EMBEDDING_DIM"`
	CacheSize int             `koanf:"cache_size" validate:"min=0"                    env:"EMBEDDING_CACHE_SIZE"`
	BatchSize int             `koanf:"batch_size" validate:"min=1"                    env:"EMBEDDING_BATCH_SIZE"`
	BaseURL   string          `koanf:"base_url"                                       env:"EMBEDDING_BASE_URL"`
	APIKey    SensitiveString `koanf:"api_key"                                        env:"EMBEDDING_API_KEY"    sensitive:"true"`
}

// RetrievalConfig tunes passage retrieval.
type RetrievalConfig struct {
	TopK         int    `koanf:"top_k"         validate:"min=1,max=10" env:"RETRIEVAL_TOP_K"`
	CatalogPath  string `koanf:"catalog_path"                          env:"RETRIEVAL_CATALOG_PATH"`
	WatchCatalog bool   `koanf:"watch_catalog"                         env:"RETRIEVAL_WATCH_CATALOG"`
}

// LLMConfig controls routing, failover and decision logging.
type LLMConfig struct {
	Default      string        `koanf:"default"       validate:"required"  env:"DEFAULT_LLM"`
	UseMock      bool          `koanf:"use_mock"                           env:"USE_MOCK_PROVIDER"`
	CallTimeout  time.Duration `koanf:"call_timeout"  validate:"required"  env:"LLM_CALL_TIMEOUT"`
	MaxRetries   uint64        `koanf:"max_retries"   validate:"max=5"     env:"LLM_MAX_RETRIES"`
	RetryBackoff time.Duration `koanf:"retry_backoff"                      env:"LLM_RETRY_BACKOFF"`
	Workers      int64         `koanf:"workers"       validate:"min=1"     env:"LLM_WORKERS"`
	DecisionLog  string        `koanf:"decision_log"                       env:"LLM_DECISION_LOG"`
	DecisionDB   string        `koanf:"decision_db"                        env:"LLM_DECISION_DB"`
}

// ProvidersConfig holds credentials and models for each generation backend.
type ProvidersConfig struct {
	Anthropic AnthropicConfig `koanf:"anthropic"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Ollama    OllamaConfig    `koanf:"ollama"`
}

type AnthropicConfig struct {
	APIKey SensitiveString `koanf:"api_key" env:"ANTHROPIC_API_KEY" sensitive:"true"`
	Model  string          `koanf:"model"   env:"CLAUDE_MODEL"`
}

type OpenAIConfig struct {
	APIKey  SensitiveString `koanf:"api_key"  env:"OPENAI_API_KEY"  sensitive:"true"`
	Model   string          `koanf:"model"    env:"CODEX_MODEL"`
	BaseURL string          `koanf:"base_url" env:"OPENAI_BASE_URL"`
}

type GeminiConfig struct {
	APIKey SensitiveString `koanf:"api_key" env:"GEMINI_API_KEY" sensitive:"true"`
	Model  string          `koanf:"model"   env:"GEMINI_MODEL"`
}

type OllamaConfig struct {
	Enabled bool   `koanf:"enabled"  env:"USE_OLLAMA_PROVIDER"`
	BaseURL string `koanf:"base_url" env:"OLLAMA_BASE_URL"`
	Model   string `koanf:"model"    env:"OLLAMA_MODEL"`
}

// RateLimitConfig holds per-route limits in ulule formatted notation ("20-M").
type RateLimitConfig struct {
	Enabled bool   `koanf:"enabled" env:"RATE_LIMIT_ENABLED"`
	Ask     string `koanf:"ask"     env:"RATE_LIMIT_ASK"     validate:"omitempty,rate_format"`
	Chat    string `koanf:"chat"    env:"RATE_LIMIT_CHAT"    validate:"omitempty,rate_format"`
	Mood    string `koanf:"mood"    env:"RATE_LIMIT_MOOD"    validate:"omitempty,rate_format"`
}

// MonitoringConfig controls the Prometheus exporter.
type MonitoringConfig struct {
	Enabled bool   `koanf:"enabled" env:"MONITORING_ENABLED"`
	Path    string `koanf:"path"    env:"MONITORING_PATH"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8000,
			Timeout: 60 * time.Second,
			CORSOrigins: []string{
				"http://localhost",
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1",
				"http://127.0.0.1:8000",
			},
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Database: DatabaseConfig{
			Table: "verses",
		},
		Redis: RedisConfig{
			Prefix: "gita:",
		},
		Cache: CacheConfig{
			TTL:     300 * time.Second,
			Backend: "memory",
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "all-minilm",
			Dimension: 384,
			CacheSize: 512,
			BatchSize: 32,
			BaseURL:   "http://localhost:11434",
		},
		Retrieval: RetrievalConfig{
			TopK: 3,
		},
		LLM: LLMConfig{
			Default:      "claude",
			UseMock:      true,
			CallTimeout:  45 * time.Second,
			MaxRetries:   0,
			RetryBackoff: 500 * time.Millisecond,
			Workers:      16,
			DecisionLog:  "logs/routing.log",
		},
		Providers: ProvidersConfig{
			Anthropic: AnthropicConfig{Model: "claude-sonnet-4-5-20250929"},
			OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
			Gemini:    GeminiConfig{Model: "gemini-1.5-flash"},
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "llama3.1:8b",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Ask:     "20-M",
			Chat:    "30-M",
			Mood:    "20-M",
		},
		Monitoring: MonitoringConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// HasProviderKeys reports whether any external backend has credentials.
func (c *Config) HasProviderKeys() bool {
	return !c.Providers.Anthropic.APIKey.IsEmpty() ||
		!c.Providers.OpenAI.APIKey.IsEmpty() ||
		!c.Providers.Gemini.APIKey.IsEmpty()
}
