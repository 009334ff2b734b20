package llmadapter

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Backend names used for routing, health and decision records.
const (
	BackendClaude = "claude"
	BackendCodex  = "codex"
	BackendGemini = "gemini"
	BackendOllama = "ollama"
	BackendMock   = "mock"
)

// ProviderConfig carries what a langchaingo client needs for one backend.
type ProviderConfig struct {
	Backend string
	Model   string
	APIKey  string
	BaseURL string
}

// NewModel builds the langchaingo client for a backend.
func NewModel(ctx context.Context, p *ProviderConfig) (llms.Model, error) {
	switch p.Backend {
	case BackendClaude:
		return createAnthropicLLM(p)
	case BackendCodex:
		return createOpenAILLM(p)
	case BackendGemini:
		return createGoogleLLM(ctx, p)
	case BackendOllama:
		return createOllamaLLM(p)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", p.Backend)
	}
}

// supportsJSONMode reports whether llms.WithJSONMode is honored by the backend.
func supportsJSONMode(backend string) bool {
	return backend == BackendCodex || backend == BackendOllama
}

func createAnthropicLLM(p *ProviderConfig) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, anthropic.WithToken(p.APIKey))
	}
	return anthropic.New(opts...)
}

func createOpenAILLM(p *ProviderConfig) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, openai.WithToken(p.APIKey))
	}
	if p.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(p.BaseURL))
	}
	return openai.New(opts...)
}

func createGoogleLLM(ctx context.Context, p *ProviderConfig) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithDefaultModel(p.Model),
	}
	if p.APIKey != "" {
		opts = append(opts, googleai.WithAPIKey(p.APIKey))
	}
	return googleai.New(ctx, opts...)
}

func createOllamaLLM(p *ProviderConfig) (llms.Model, error) {
	opts := []ollama.Option{
		ollama.WithModel(p.Model),
		ollama.WithFormat("json"),
	}
	if p.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(p.BaseURL))
	}
	return ollama.New(opts...)
}
