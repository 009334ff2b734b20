package llmadapter

import (
	"context"
	"fmt"

	"github.com/gitacompanion/companion/pkg/config"
	"github.com/gitacompanion/companion/pkg/logger"
)

// Registries holds one registry per operation kind.
type Registries struct {
	Guidance *Registry[GuidanceGenerator]
	Chat     *Registry[ChatGenerator]
}

// ProviderConfigs lists the external backends enabled by cfg in failover
// registration order. Mock mode disables all of them.
func ProviderConfigs(cfg *config.Config) []ProviderConfig {
	if cfg.LLM.UseMock {
		return nil
	}
	p := &cfg.Providers
	out := make([]ProviderConfig, 0, 4)
	if !p.Anthropic.APIKey.IsEmpty() {
		out = append(out, ProviderConfig{
			Backend: BackendClaude,
			Model:   p.Anthropic.Model,
			APIKey:  p.Anthropic.APIKey.Value(),
		})
	}
	if !p.OpenAI.APIKey.IsEmpty() {
		out = append(out, ProviderConfig{
			Backend: BackendCodex,
			Model:   p.OpenAI.Model,
			APIKey:  p.OpenAI.APIKey.Value(),
			BaseURL: p.OpenAI.BaseURL,
		})
	}
	if !p.Gemini.APIKey.IsEmpty() {
		out = append(out, ProviderConfig{
			Backend: BackendGemini,
			Model:   p.Gemini.Model,
			APIKey:  p.Gemini.APIKey.Value(),
		})
	}
	if p.Ollama.Enabled {
		out = append(out, ProviderConfig{
			Backend: BackendOllama,
			Model:   p.Ollama.Model,
			BaseURL: p.Ollama.BaseURL,
		})
	}
	return out
}

// BuildRegistries constructs generators for every enabled backend and always
// registers the mock last.
func BuildRegistries(ctx context.Context, cfg *config.Config) (*Registries, error) {
	log := logger.FromContext(ctx)
	regs := &Registries{
		Guidance: NewRegistry[GuidanceGenerator](),
		Chat:     NewRegistry[ChatGenerator](),
	}
	for _, pc := range ProviderConfigs(cfg) {
		model, err := NewModel(ctx, &pc)
		if err != nil {
			log.Warn("Skipping backend", "backend", pc.Backend, "error", err)
			continue
		}
		gen := NewLangChainGenerator(pc.Backend, model, supportsJSONMode(pc.Backend))
		if err := regs.register(pc.Backend, gen, gen); err != nil {
			return nil, err
		}
		log.Info("Registered backend", "backend", pc.Backend, "model", pc.Model)
	}
	mock := NewMockGenerator()
	if err := regs.register(BackendMock, mock, mock); err != nil {
		return nil, err
	}
	if !cfg.LLM.UseMock && !cfg.HasProviderKeys() {
		log.Warn(
			"Mock mode is off but no provider API keys are set; only offline backends can answer",
			"keys", "ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY",
		)
	}
	return regs, nil
}

func (r *Registries) register(name string, g GuidanceGenerator, c ChatGenerator) error {
	if err := r.Guidance.Register(name, g); err != nil {
		return fmt.Errorf("register guidance backend: %w", err)
	}
	if err := r.Chat.Register(name, c); err != nil {
		return fmt.Errorf("register chat backend: %w", err)
	}
	return nil
}

// Names returns every backend registered for either kind, in order.
func (r *Registries) Names() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, r.Guidance.Len()+r.Chat.Len())
	for _, names := range [][]string{r.Guidance.Names(), r.Chat.Names()} {
		for _, n := range names {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}
