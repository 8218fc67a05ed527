package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
	"github.com/modelgate/modelgate/gateway/anthropic"
	"github.com/modelgate/modelgate/gateway/openai"
)

// NewAnthropicProvider creates an Anthropic provider from the configuration.
func NewAnthropicProvider(cfg *Config, logger zerolog.Logger) *anthropic.Provider {
	return anthropic.NewProvider(anthropic.Config{
		APIKey:  cfg.Anthropic.APIKey,
		BaseURL: cfg.Anthropic.BaseURL,
		Breaker: cfg.BreakerConfig(),
		Retry:   cfg.RetryConfig(),
	}, logger)
}

// NewOpenAIProvider creates an OpenAI provider from the configuration.
func NewOpenAIProvider(cfg *Config, logger zerolog.Logger) *openai.Provider {
	return openai.NewProvider(openai.Config{
		APIKey:       cfg.OpenAI.APIKey,
		BaseURL:      cfg.OpenAI.BaseURL,
		Organization: cfg.OpenAI.Organization,
		Breaker:      cfg.BreakerConfig(),
		Retry:        cfg.RetryConfig(),
	}, logger)
}

// NewProvider creates the provider adapter identified by a resolved
// ClientKey.
func NewProvider(cfg *Config, key *gateway.ClientKey, logger zerolog.Logger) (gateway.Provider, error) {
	switch key.Provider {
	case gateway.ProviderAnthropic:
		return NewAnthropicProvider(cfg, logger), nil
	case gateway.ProviderOpenAI:
		return NewOpenAIProvider(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", key.Provider)
	}
}
