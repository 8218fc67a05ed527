// Package openai implements the gateway.Provider contract over the OpenAI
// Chat Completions API, reusing the shared breaker and retry machinery.
package openai

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/modelgate/modelgate/gateway"
	"github.com/modelgate/modelgate/gateway/breaker"
	"github.com/modelgate/modelgate/gateway/retry"
)

// Config configures an OpenAI provider.
type Config struct {
	// APIKey authenticates against the API. When empty, OPENAI_API_KEY is
	// consulted on first use; a missing key is a configuration error
	// raised per call, not at construction.
	APIKey string

	// BaseURL overrides the API endpoint (OpenAI-compatible backends,
	// tests). Empty uses the official endpoint.
	BaseURL string

	// Organization is the optional OpenAI organization ID.
	Organization string

	Breaker breaker.Config
	Retry   retry.Config
}

// Provider issues requests against the Chat Completions API. It owns its
// circuit breaker and retry executor and is safe for concurrent use.
type Provider struct {
	cfg      Config
	breaker  *breaker.Breaker
	executor *retry.Executor
	logger   zerolog.Logger

	mu     sync.Mutex
	client *openai.Client
}

// NewProvider creates a new OpenAI provider.
func NewProvider(cfg Config, logger zerolog.Logger) *Provider {
	logger = logger.With().Str("provider", gateway.ProviderOpenAI).Logger()
	b := breaker.New(cfg.Breaker, logger)

	return &Provider{
		cfg:      cfg,
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

	req := p.buildRequest(model, messages, nil, "", opts.Temperature, opts.MaxTokens, gateway.DefaultChatMaxTokens)
	return p.complete(ctx, "chat", req)
}

// VisionChat implements gateway.Provider.VisionChat.
func (p *Provider) VisionChat(ctx context.Context, model, prompt, image, mimeType string, opts *gateway.VisionOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.VisionOptions{}
	}

	messages := visionMessages(prompt, image, mimeType, opts.AdditionalImages, opts.SystemPrompt)
	req := p.buildRequest(model, messages, nil, "", opts.Temperature, opts.MaxTokens, gateway.DefaultChatMaxTokens)
	return p.complete(ctx, "vision_chat", req)
}

// ChatWithTools implements gateway.Provider.ChatWithTools.
func (p *Provider) ChatWithTools(ctx context.Context, model string, messages []gateway.Message, tools []gateway.ToolSpec, opts *gateway.ToolChatOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.ToolChatOptions{}
	}

	req := p.buildRequest(model, messages, tools, opts.ForceToolName, opts.Temperature, opts.MaxTokens, gateway.DefaultToolMaxTokens)
	return p.complete(ctx, "chat_with_tools", req)
}

// VisionChatWithTools implements gateway.Provider.VisionChatWithTools.
func (p *Provider) VisionChatWithTools(ctx context.Context, model, prompt, image, mimeType string, tools []gateway.ToolSpec, opts *gateway.VisionToolOptions) (*gateway.ChatResult, error) {
	if opts == nil {
		opts = &gateway.VisionToolOptions{}
	}

	messages := visionMessages(prompt, image, mimeType, opts.AdditionalImages, opts.SystemPrompt)
	req := p.buildRequest(model, messages, tools, opts.ForceToolName, opts.Temperature, opts.MaxTokens, gateway.DefaultToolMaxTokens)
	return p.complete(ctx, "vision_chat_with_tools", req)
}

func (p *Provider) buildRequest(model string, messages []gateway.Message, tools []gateway.ToolSpec, forceToolName string, temperature *float64, maxTokens, fallbackMaxTokens int64) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toChatMessages(messages),
	}

	if maxTokens <= 0 {
		maxTokens = fallbackMaxTokens
	}
	req.MaxTokens = int(maxTokens)

	temp := gateway.DefaultTemperature
	if temperature != nil {
		temp = *temperature
	}
	req.Temperature = float32(temp)

	if len(tools) > 0 {
		req.Tools = toTools(tools)
		if forceToolName != "" {
			req.ToolChoice = openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: forceToolName},
			}
		} else {
			req.ToolChoice = "auto"
		}
	}

	return req
}

// complete resolves the SDK client, runs the request through the retry
// executor, and extracts the canonical result.
func (p *Provider) complete(ctx context.Context, operation string, req openai.ChatCompletionRequest) (*gateway.ChatResult, error) {
	client, err := p.resolveClient()
	if err != nil {
		return nil, err
	}

	logger := p.logger.With().
		Str("request_id", uuid.NewString()).
		Str("operation", operation).
		Str("model", req.Model).
		Logger()

	var resp openai.ChatCompletionResponse
	err = p.executor.Do(ctx, func(ctx context.Context) error {
		r, callErr := client.CreateChatCompletion(ctx, req)
		if callErr != nil {
			return convertError(callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		logger.Error().Err(err).Msg("Request failed")
		return nil, err
	}

	result := fromResponse(&resp)
	logger.Debug().Str("finish_reason", result.FinishReason).Msg("Request completed")
	return result, nil
}

// resolveClient builds the SDK client on first use so a missing API key
// surfaces as a per-call configuration error rather than at construction.
func (p *Provider) resolveClient() (*openai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	apiKey := p.cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, gateway.NewConfigError("openai API key not configured (set OPENAI_API_KEY)")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if p.cfg.BaseURL != "" {
		clientCfg.BaseURL = p.cfg.BaseURL
	}
	if p.cfg.Organization != "" {
		clientCfg.OrgID = p.cfg.Organization
	}
	p.client = openai.NewClientWithConfig(clientCfg)
	return p.client, nil
}

// visionMessages mirrors the Anthropic adapter's assembly: primary image
// first, additional images next, text prompt last.
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

// Ensure Provider implements gateway.Provider
var _ gateway.Provider = (*Provider)(nil)
