// Package anthropic implements the gateway.Provider contract against the
// Anthropic Messages API using its native wire format.
package anthropic

import (
	"context"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/modelgate/modelgate/gateway"
	"github.com/modelgate/modelgate/gateway/breaker"
	"github.com/modelgate/modelgate/gateway/retry"
)

// Config configures an Anthropic provider.
type Config struct {
	// APIKey authenticates against the API. When empty, ANTHROPIC_API_KEY
	// is consulted on first use; a missing key is a configuration error
	// raised per call, not at construction.
	APIKey string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string

	// HTTPClient overrides the transport. Defaults to a plain http.Client;
	// attempt timeouts are enforced by the retry executor, not here.
	HTTPClient *http.Client

	Breaker breaker.Config
	Retry   retry.Config
}

// Provider issues requests against the Anthropic Messages API. It owns its
// circuit breaker and retry executor and is safe for concurrent use.
type Provider struct {
	apiKey   string
	client   *client
	breaker  *breaker.Breaker
	executor *retry.Executor
	logger   zerolog.Logger
}

// NewProvider creates a new Anthropic provider.
func NewProvider(cfg Config, logger zerolog.Logger) *Provider {
	logger = logger.With().Str("provider", gateway.ProviderAnthropic).Logger()
	b := breaker.New(cfg.Breaker, logger)

	return &Provider{
		apiKey:   cfg.APIKey,
		client:   newClient(cfg.HTTPClient, cfg.BaseURL, logger),
		breaker:  b,
		executor: retry.NewExecutor(b, cfg.Retry, logger),
		logger:   logger,
	}
}

// Chat implements gateway.Provider.Chat.
func (p *Provider) Chat(ctx context.Context, model string, messages []gateway.Message, opts *gateway.ChatOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.ChatOptions{}
	}

	req := buildRequest(model, messages, nil, "",
		temperatureOrDefault(opts.Temperature),
		maxTokensOrDefault(opts.MaxTokens, gateway.DefaultChatMaxTokens))
	return p.complete(ctx, "chat", req)
}

// VisionChat implements gateway.Provider.VisionChat. The images become
// leading content blocks, followed by the text prompt.
func (p *Provider) VisionChat(ctx context.Context, model, prompt, image, mimeType string, opts *gateway.VisionOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.VisionOptions{}
	}

	messages := visionMessages(prompt, image, mimeType, opts.AdditionalImages, opts.SystemPrompt)
	req := buildRequest(model, messages, nil, "",
		temperatureOrDefault(opts.Temperature),
		maxTokensOrDefault(opts.MaxTokens, gateway.DefaultChatMaxTokens))
	return p.complete(ctx, "vision_chat", req)
}

// ChatWithTools implements gateway.Provider.ChatWithTools.
func (p *Provider) ChatWithTools(ctx context.Context, model string, messages []gateway.Message, tools []gateway.ToolSpec, opts *gateway.ToolChatOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.ToolChatOptions{}
	}

	req := buildRequest(model, messages, tools, opts.ForceToolName,
		temperatureOrDefault(opts.Temperature),
		maxTokensOrDefault(opts.MaxTokens, gateway.DefaultToolMaxTokens))
	return p.complete(ctx, "chat_with_tools", req)
}

// VisionChatWithTools implements gateway.Provider.VisionChatWithTools.
func (p *Provider) VisionChatWithTools(ctx context.Context, model, prompt, image, mimeType string, tools []gateway.ToolSpec, opts *gateway.VisionToolOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.VisionToolOptions{}
	}

	messages := visionMessages(prompt, image, mimeType, opts.AdditionalImages, opts.SystemPrompt)
	req := buildRequest(model, messages, tools, opts.ForceToolName,
		temperatureOrDefault(opts.Temperature),
		maxTokensOrDefault(opts.MaxTokens, gateway.DefaultToolMaxTokens))
	return p.complete(ctx, "vision_chat_with_tools", req)
}

// complete resolves the API key, runs the request through the retry
// executor, and extracts the canonical result.
func (p *Provider) complete(ctx context.Context, operation string, req *messagesRequest) (*gateway.ChatResult, error) {
	apiKey := p.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, gateway.NewConfigError("anthropic API key not configured (set ANTHROPIC_API_KEY)")
	}

	logger := p.logger.With().
		Str("request_id", uuid.NewString()).
		Str("operation", operation).
		Str("model", req.Model).
		Logger()

	var resp *messagesResponse
	err := p.executor.Do(ctx, func(ctx context.Context) error {
		r, sendErr := p.client.send(ctx, apiKey, req)
		if sendErr != nil {
			return sendErr
		}
		resp = r
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Request failed")
		return nil, err
	}

	result := extractResult(resp)
	event := logger.Debug().Str("stop_reason", result.FinishReason)
	if result.Tokens != nil {
		event = event.
			Int64("prompt_tokens", result.Tokens.PromptTokens).
			Int64("completion_tokens", result.Tokens.CompletionTokens)
	}
	event.Msg("Request completed")

	return result, nil
}

// visionMessages assembles the user message for the vision operations:
// primary image first, additional images next, text prompt last. An optional
// system prompt becomes a leading system message, hoisted during translation.
func visionMessages(prompt, image, mimeType string, additional []gateway.ImageInput, systemPrompt string) []gateway.Message {
	parts := make([]gateway.ContentPart, 0, len(additional)+2)
	parts = append(parts, gateway.ContentPart{
		Type: gateway.ContentPartTypeImage,
		URL:  gateway.ImageDataURL(mimeType, image),
	})
	for _, img := range additional {
		parts = append(parts, gateway.ContentPart{
			Type: gateway.ContentPartTypeImage,
			URL:  gateway.ImageDataURL(img.MimeType, img.Data),
		})
	}
	parts = append(parts, gateway.ContentPart{
		Type: gateway.ContentPartTypeText,
		Text: prompt,
	})

	var messages []gateway.Message
	if systemPrompt != "" {
		messages = append(messages, gateway.NewTextMessage(gateway.RoleSystem, systemPrompt))
	}
	return append(messages, gateway.Message{Role: gateway.RoleUser, Content: parts})
}

func temperatureOrDefault(t *float64) *float64 {
	if t != nil {
		return t
	}
	d := gateway.DefaultTemperature
	return &d
}

func maxTokensOrDefault(tokens, fallback int64) int64 {
	if tokens > 0 {
		return tokens
	}
	return fallback
}

// Ensure Provider implements gateway.Provider
var _ gateway.Provider = (*Provider)(nil)
