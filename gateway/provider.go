package gateway

import (
	"context"
)

// Operation defaults. Chat and vision responses are mostly prose; tool-calling
// responses carry structured output and get a larger completion budget.
const (
	DefaultChatMaxTokens int64 = 2048
	DefaultToolMaxTokens int64 = 3000
	DefaultTemperature         = 0.0
)

// ImageInput is a raw base64 image payload plus its mime type, used for
// additional images on the vision operations.
type ImageInput struct {
	Data     string // Raw base64 payload, no data URL prefix
	MimeType string // e.g. "image/png", "image/jpeg"
}

// ChatOptions holds optional parameters for Chat.
type ChatOptions struct {
	Temperature *float64 // Defaults to DefaultTemperature
	MaxTokens   int64    // Defaults to DefaultChatMaxTokens
}

// VisionOptions holds optional parameters for VisionChat.
type VisionOptions struct {
	SystemPrompt     string
	Temperature      *float64
	MaxTokens        int64
	AdditionalImages []ImageInput
}

// ToolChatOptions holds optional parameters for ChatWithTools.
// ForceToolName, when set, forces the model to call that specific tool
// instead of choosing freely.
type ToolChatOptions struct {
	Temperature   *float64
	MaxTokens     int64 // Defaults to DefaultToolMaxTokens
	ForceToolName string
}

// VisionToolOptions holds optional parameters for VisionChatWithTools.
type VisionToolOptions struct {
	SystemPrompt     string
	Temperature      *float64
	MaxTokens        int64
	AdditionalImages []ImageInput
	ForceToolName    string
}

// Provider is the canonical contract every backend adapter implements.
// All operations accept canonical input, return a ChatResult, and surface
// typed *Error values on unrecoverable failure. Implementations are safe for
// concurrent use; the only shared mutable state behind them is the
// per-provider circuit breaker.
type Provider interface {
	// Chat sends a plain conversation and returns the model's reply.
	Chat(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*ChatResult, error)

	// VisionChat sends a text prompt together with one or more images.
	// image is the raw base64 payload of the primary image; any
	// AdditionalImages become further leading image blocks. Images are
	// placed before the text prompt.
	VisionChat(ctx context.Context, model, prompt, image, mimeType string, opts *VisionOptions) (*ChatResult, error)

	// ChatWithTools sends a conversation with tool declarations attached.
	// The result's FunctionCall is populated when the model invoked a tool.
	ChatWithTools(ctx context.Context, model string, messages []Message, tools []ToolSpec, opts *ToolChatOptions) (*ChatResult, error)

	// VisionChatWithTools combines VisionChat and ChatWithTools.
	VisionChatWithTools(ctx context.Context, model, prompt, image, mimeType string, tools []ToolSpec, opts *VisionToolOptions) (*ChatResult, error)
}
