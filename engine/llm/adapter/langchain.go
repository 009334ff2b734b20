package llmadapter

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 1024
)

// LangChainGenerator drives any langchaingo model with the single-turn JSON
// prompts and parses the reply into a validated result.
type LangChainGenerator struct {
	name     string
	model    llms.Model
	jsonMode bool
}

var (
	_ GuidanceGenerator = (*LangChainGenerator)(nil)
	_ ChatGenerator     = (*LangChainGenerator)(nil)
)

// NewLangChainGenerator wraps model under a backend name. jsonMode asks the
// provider to constrain output to JSON when it supports that.
func NewLangChainGenerator(name string, model llms.Model, jsonMode bool) *LangChainGenerator {
	return &LangChainGenerator{name: name, model: model, jsonMode: jsonMode}
}

func (g *LangChainGenerator) Name() string { return g.name }

func (g *LangChainGenerator) GenerateGuidance(ctx context.Context, in GuidanceInput) (*GuidanceResult, error) {
	text, err := g.complete(ctx, BuildGuidancePrompt(&in))
	if err != nil {
		return nil, err
	}
	result, err := ParseGuidance(text, in.Verses)
	if err != nil {
		return nil, fmt.Errorf("%s guidance: %w", g.name, err)
	}
	if result.Mode == "" {
		result.Mode = in.Mode
	}
	if result.Topic == "" {
		result.Topic = in.Topic
	}
	return result, nil
}

func (g *LangChainGenerator) GenerateChat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	text, err := g.complete(ctx, BuildChatPrompt(&in))
	if err != nil {
		return nil, err
	}
	result, err := ParseChat(text, in.Verses)
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", g.name, err)
	}
	if result.Mode == "" {
		result.Mode = in.Mode
	}
	return result, nil
}

func (g *LangChainGenerator) complete(ctx context.Context, prompt string) (string, error) {
	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}
	options := []llms.CallOption{
		llms.WithTemperature(defaultTemperature),
		llms.WithMaxTokens(defaultMaxTokens),
	}
	if g.jsonMode {
		options = append(options, llms.WithJSONMode())
	}
	resp, err := g.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", fmt.Errorf("%s: generate content: %w", g.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", g.name, ErrEmptyResponse)
	}
	return resp.Choices[0].Content, nil
}
