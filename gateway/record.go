package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// UsageRecord captures the token accounting of one completed operation.
type UsageRecord struct {
	Provider   string
	Model      string
	Operation  string
	Tokens     TokenUsage
	OccurredAt time.Time
}

// Recorder persists usage records. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, rec UsageRecord) error
}

// WithRecording wraps a Provider so every operation that reports token usage
// is recorded. Recording failures are logged and never affect the call
// result; operations without a usage block are not recorded.
func WithRecording(p Provider, name string, rec Recorder, logger zerolog.Logger) Provider {
	return &recordingProvider{
		inner:    p,
		name:     name,
		recorder: rec,
		logger:   logger.With().Str("component", "usageRecorder").Logger(),
	}
}

type recordingProvider struct {
	inner    Provider
	name     string
	recorder Recorder
	logger   zerolog.Logger
}

func (r *recordingProvider) Chat(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*ChatResult, error) {
	result, err := r.inner.Chat(ctx, model, messages, opts)
	r.record(ctx, "chat", model, result)
	return result, err
}

func (r *recordingProvider) VisionChat(ctx context.Context, model, prompt, image, mimeType string, opts *VisionOptions) (*ChatResult, error) {
	result, err := r.inner.VisionChat(ctx, model, prompt, image, mimeType, opts)
	r.record(ctx, "vision_chat", model, result)
	return result, err
}

func (r *recordingProvider) ChatWithTools(ctx context.Context, model string, messages []Message, tools []ToolSpec, opts *ToolChatOptions) (*ChatResult, error) {
	result, err := r.inner.ChatWithTools(ctx, model, messages, tools, opts)
	r.record(ctx, "chat_with_tools", model, result)
	return result, err
}

func (r *recordingProvider) VisionChatWithTools(ctx context.Context, model, prompt, image, mimeType string, tools []ToolSpec, opts *VisionToolOptions) (*ChatResult, error) {
	result, err := r.inner.VisionChatWithTools(ctx, model, prompt, image, mimeType, tools, opts)
	r.record(ctx, "vision_chat_with_tools", model, result)
	return result, err
}

func (r *recordingProvider) record(ctx context.Context, operation, model string, result *ChatResult) {
	if result == nil || result.Tokens == nil {
		return
	}

	rec := UsageRecord{
		Provider:   r.name,
		Model:      model,
		Operation:  operation,
		Tokens:     *result.Tokens,
		OccurredAt: time.Now(),
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		r.logger.Warn().Err(err).Str("operation", operation).Msg("Failed to record token usage")
	}
}

// Ensure recordingProvider implements Provider
var _ Provider = (*recordingProvider)(nil)
