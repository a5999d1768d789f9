package assistant

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultOllamaModel    = "llama3.1"
	defaultMaxTokens      = 512
)

// LangChainProvider serves Anthropic and Ollama models through langchaingo.
type LangChainProvider struct {
	name  string
	model llms.Model
}

// NewAnthropicProvider creates a provider for Anthropic models.
func NewAnthropicProvider(apiKey, model string) (*LangChainProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key required")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	llm, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("creating anthropic client: %w", err)
	}
	return &LangChainProvider{name: "anthropic", model: llm}, nil
}

// NewOllamaProvider creates a provider for a local Ollama server. baseURL
// may be empty for the default http://localhost:11434.
func NewOllamaProvider(model, baseURL string) (*LangChainProvider, error) {
	if model == "" {
		model = defaultOllamaModel
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}
	return &LangChainProvider{name: "ollama", model: llm}, nil
}

// Name returns the backing service name.
func (p *LangChainProvider) Name() string { return p.name }

// Complete sends system and prompt as one prompt; not every langchaingo
// backend accepts a separate system message.
func (p *LangChainProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, p.model, system+"\n\n"+prompt,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(defaultMaxTokens),
	)
}

var _ Provider = (*LangChainProvider)(nil)
