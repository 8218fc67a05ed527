// Package config loads gateway configuration from YAML with environment
// fallbacks. A .env file in the working directory is loaded first so API
// keys can live outside the config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/modelgate/modelgate/gateway"
	"github.com/modelgate/modelgate/gateway/breaker"
	"github.com/modelgate/modelgate/gateway/retry"
)

// AnthropicConfig represents configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`  // Falls back to ANTHROPIC_API_KEY
	Model   string `yaml:"model,omitempty"`    // Default model name
	BaseURL string `yaml:"base_url,omitempty"` // Override API endpoint
}

// OpenAIConfig represents configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`      // Falls back to OPENAI_API_KEY
	BaseURL      string `yaml:"base_url,omitempty"`     // Custom base URL (default: official API)
	Model        string `yaml:"model,omitempty"`        // Default model name
	Organization string `yaml:"organization,omitempty"` // Organization ID
}

// BreakerConfig represents circuit breaker tuning. Zero values fall back to
// the breaker package defaults.
type BreakerConfig struct {
	FailureThreshold     int `yaml:"failure_threshold,omitempty"`
	FailureWindowSeconds int `yaml:"failure_window_seconds,omitempty"`
	ResetTimeoutSeconds  int `yaml:"reset_timeout_seconds,omitempty"`
}

// RetryConfig represents retry executor tuning. Zero values fall back to the
// retry package defaults.
type RetryConfig struct {
	MaxRetries            int `yaml:"max_retries,omitempty"`
	AttemptTimeoutSeconds int `yaml:"attempt_timeout_seconds,omitempty"`
}

// UsageConfig represents the token usage accounting store.
type UsageConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"` // Recording is on by default
	DBPath   string `yaml:"db_path,omitempty"`  // SQLite file path
}

// Config is the top-level gateway configuration.
type Config struct {
	Providers []string        `yaml:"providers,omitempty"` // Enabled providers, in preference order
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Breaker   BreakerConfig   `yaml:"breaker,omitempty"`
	Retry     RetryConfig     `yaml:"retry,omitempty"`
	Usage     UsageConfig     `yaml:"usage,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Providers: []string{gateway.ProviderAnthropic},
		Anthropic: AnthropicConfig{
			Model: "claude-sonnet-4-5",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		Usage: UsageConfig{
			DBPath: "modelgate.db",
		},
	}
}

// Load reads the YAML config at path and merges it over the defaults, with
// file values taking precedence. A missing path returns the defaults. A .env
// file in the working directory is loaded into the environment first; its
// absence is not an error.
func Load(path string) (*Config, error) {
	// Populate the environment before anything reads API keys from it.
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded) //#nosec 304 -- intentional file read for config
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", expanded, err)
	}

	var fileConfig Config
	if err := yaml.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", expanded, err)
	}

	if err := mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return cfg, nil
}

// ProviderConfig converts to the registry's provider configuration.
func (c *Config) ProviderConfig() *gateway.ProviderConfig {
	return &gateway.ProviderConfig{
		AnthropicAPIKey: c.Anthropic.APIKey,
		AnthropicModel:  c.Anthropic.Model,
		OpenAIAPIKey:    c.OpenAI.APIKey,
		OpenAIBaseURL:   c.OpenAI.BaseURL,
		OpenAIModel:     c.OpenAI.Model,
		OpenAIOrg:       c.OpenAI.Organization,
	}
}

// BreakerConfig converts to the breaker package's configuration.
func (c *Config) BreakerConfig() breaker.Config {
	return breaker.Config{
		FailureThreshold: c.Breaker.FailureThreshold,
		FailureWindow:    time.Duration(c.Breaker.FailureWindowSeconds) * time.Second,
		ResetTimeout:     time.Duration(c.Breaker.ResetTimeoutSeconds) * time.Second,
	}
}

// RetryConfig converts to the retry package's configuration.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		MaxRetries:     c.Retry.MaxRetries,
		AttemptTimeout: time.Duration(c.Retry.AttemptTimeoutSeconds) * time.Second,
	}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
