package gateway

import (
	"fmt"
	"os"
	"sync"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Preference represents a single provider/model preference.
type Preference struct {
	Provider    string
	Model       string
	Temperature *float64
}

// ClientKey uniquely identifies a provider adapter configuration.
type ClientKey struct {
	Provider     string
	Model        string
	APIKey       string
	BaseURL      string // For OpenAI-compatible endpoints
	Organization string // For OpenAI
}

// ProviderConfig holds the configuration needed for provider resolution.
// This avoids import cycles by not importing the config package.
type ProviderConfig struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	OpenAIOrg       string
}

// Registry manages provider selection and configuration resolution.
// Adapter construction is handled by the caller.
type Registry struct {
	enabledProviders map[string]bool
	mu               sync.RWMutex
	config           *ProviderConfig
}

// NewRegistry creates a new Registry with the given config and enabled providers.
func NewRegistry(providerConfig *ProviderConfig, enabledProviders []string) *Registry {
	enabledMap := make(map[string]bool)
	for _, p := range enabledProviders {
		enabledMap[p] = true
	}

	return &Registry{
		enabledProviders: enabledMap,
		config:           providerConfig,
	}
}

// IsProviderEnabled checks if a provider is in the enabled providers list.
func (r *Registry) IsProviderEnabled(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabledProviders[provider]
}

// IsProviderConfigured checks if a provider has the required configuration.
// API keys fall back to the process environment; a missing key is not fatal
// here because the config-error contract surfaces it on first use.
func (r *Registry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isProviderConfiguredUnlocked(provider)
}

// Resolve returns a ClientKey for the first enabled and configured provider
// from the preference list. With no preferences it falls back to the first
// enabled provider.
func (r *Registry) Resolve(prefs []Preference) (*ClientKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(prefs) > 0 {
		var attempted []string
		for _, pref := range prefs {
			attempted = append(attempted, pref.Provider)

			if !r.enabledProviders[pref.Provider] {
				continue
			}
			if !r.isProviderConfiguredUnlocked(pref.Provider) {
				continue
			}

			key, err := r.resolveProviderConfig(pref.Provider, pref.Model)
			if err != nil {
				continue
			}
			return key, nil
		}
		return nil, fmt.Errorf("no available provider from preferences %v (enabled: %v)", attempted, r.enabledProvidersList())
	}

	if len(r.enabledProviders) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}

	var first string
	for p := range r.enabledProviders {
		first = p
		break
	}

	if !r.isProviderConfiguredUnlocked(first) {
		return nil, fmt.Errorf("first enabled provider %s is not configured", first)
	}

	return r.resolveProviderConfig(first, "")
}

// isProviderConfiguredUnlocked must be called with r.mu already locked.
func (r *Registry) isProviderConfiguredUnlocked(provider string) bool {
	switch provider {
	case ProviderAnthropic:
		apiKey := r.config.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		return apiKey != ""
	case ProviderOpenAI:
		apiKey := r.config.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		return apiKey != ""
	default:
		return false
	}
}

// resolveProviderConfig resolves provider-specific configuration and returns a ClientKey.
func (r *Registry) resolveProviderConfig(provider, modelOverride string) (*ClientKey, error) {
	key := &ClientKey{
		Provider: provider,
		Model:    modelOverride,
	}

	switch provider {
	case ProviderAnthropic:
		apiKey := r.config.AnthropicAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		key.APIKey = apiKey
		if key.Model == "" {
			key.Model = r.config.AnthropicModel
		}

	case ProviderOpenAI:
		apiKey := r.config.OpenAIAPIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		key.APIKey = apiKey

		baseURL := r.config.OpenAIBaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OPENAI_BASE_URL")
		}
		key.BaseURL = baseURL

		org := r.config.OpenAIOrg
		if org == "" {
			org = os.Getenv("OPENAI_ORG_ID")
		}
		key.Organization = org

		if key.Model == "" {
			key.Model = r.config.OpenAIModel
		}

	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	return key, nil
}

// enabledProvidersList returns a list of enabled providers (for error messages).
func (r *Registry) enabledProvidersList() []string {
	var providers []string
	for p := range r.enabledProviders {
		providers = append(providers, p)
	}
	return providers
}
