package assistant

import (
	"fmt"

	"github.com/albeorla/task-pri-lite-sub001/internal/config"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/albeorla/task-pri-lite-sub001/internal/secrets"
)

// New builds the collaborator selected by cfg. Provider "none" or "" yields
// NoOp.
func New(cfg config.AssistantConfig, logger *logging.Logger) (Collaborator, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "", config.ProviderNone:
		return NoOp{}, nil
	case config.ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg.APIKey.Value(), cfg.Model, cfg.BaseURL)
	case config.ProviderAnthropic:
		p, err = NewAnthropicProvider(cfg.APIKey.Value(), cfg.Model)
	case config.ProviderOllama:
		p, err = NewOllamaProvider(cfg.Model, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unknown assistant provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	scrubber, err := secrets.New(secrets.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("building scrubber: %w", err)
	}
	return NewGuarded(p, GuardConfig{
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
		Burst:     cfg.Burst,
		Scrubber:  scrubber,
		Logger:    logger,
	}), nil
}
