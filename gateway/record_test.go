package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// stubProvider returns a fixed result from every operation.
type stubProvider struct {
	result *ChatResult
	err    error
}

func (s *stubProvider) Chat(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*ChatResult, error) {
	return s.result, s.err
}

func (s *stubProvider) VisionChat(ctx context.Context, model, prompt, image, mimeType string, opts *VisionOptions) (*ChatResult, error) {
	return s.result, s.err
}

func (s *stubProvider) ChatWithTools(ctx context.Context, model string, messages []Message, tools []ToolSpec, opts *ToolChatOptions) (*ChatResult, error) {
	return s.result, s.err
}

func (s *stubProvider) VisionChatWithTools(ctx context.Context, model, prompt, image, mimeType string, tools []ToolSpec, opts *VisionToolOptions) (*ChatResult, error) {
	return s.result, s.err
}

type captureRecorder struct {
	records []UsageRecord
	err     error
}

func (c *captureRecorder) Record(ctx context.Context, rec UsageRecord) error {
	c.records = append(c.records, rec)
	return c.err
}

func TestWithRecordingRecordsUsage(t *testing.T) {
	inner := &stubProvider{result: &ChatResult{
		Text:   "hi",
		Tokens: &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}
	rec := &captureRecorder{}
	p := WithRecording(inner, "anthropic", rec, zerolog.Nop())

	result, err := p.Chat(context.Background(), "claude-sonnet-4-5", nil, nil)
	if err != nil {
		t.Fatalf("Chat() returned error: %v", err)
	}
	if result.Text != "hi" {
		t.Errorf("Text = %q, want %q", result.Text, "hi")
	}

	if len(rec.records) != 1 {
		t.Fatalf("recorded %d records, want 1", len(rec.records))
	}
	got := rec.records[0]
	if got.Provider != "anthropic" {
		t.Errorf("Provider = %q, want %q", got.Provider, "anthropic")
	}
	if got.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q, want %q", got.Model, "claude-sonnet-4-5")
	}
	if got.Operation != "chat" {
		t.Errorf("Operation = %q, want %q", got.Operation, "chat")
	}
	if got.Tokens.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", got.Tokens.TotalTokens)
	}
	if got.OccurredAt.IsZero() {
		t.Error("OccurredAt is zero")
	}
}

func TestWithRecordingOperationNames(t *testing.T) {
	inner := &stubProvider{result: &ChatResult{Tokens: &TokenUsage{TotalTokens: 1}}}
	rec := &captureRecorder{}
	p := WithRecording(inner, "openai", rec, zerolog.Nop())

	ctx := context.Background()
	p.Chat(ctx, "m", nil, nil)
	p.VisionChat(ctx, "m", "p", "img", "image/png", nil)
	p.ChatWithTools(ctx, "m", nil, nil, nil)
	p.VisionChatWithTools(ctx, "m", "p", "img", "image/png", nil, nil)

	want := []string{"chat", "vision_chat", "chat_with_tools", "vision_chat_with_tools"}
	if len(rec.records) != len(want) {
		t.Fatalf("recorded %d records, want %d", len(rec.records), len(want))
	}
	for i, op := range want {
		if rec.records[i].Operation != op {
			t.Errorf("records[%d].Operation = %q, want %q", i, rec.records[i].Operation, op)
		}
	}
}

func TestWithRecordingSkipsWhenNoUsage(t *testing.T) {
	inner := &stubProvider{result: &ChatResult{Text: "hi"}}
	rec := &captureRecorder{}
	p := WithRecording(inner, "anthropic", rec, zerolog.Nop())

	if _, err := p.Chat(context.Background(), "m", nil, nil); err != nil {
		t.Fatalf("Chat() returned error: %v", err)
	}
	if len(rec.records) != 0 {
		t.Errorf("recorded %d records, want 0 when usage absent", len(rec.records))
	}
}

func TestWithRecordingFailureDoesNotAffectResult(t *testing.T) {
	inner := &stubProvider{result: &ChatResult{
		Text:   "hi",
		Tokens: &TokenUsage{TotalTokens: 1},
	}}
	rec := &captureRecorder{err: errors.New("disk full")}
	p := WithRecording(inner, "anthropic", rec, zerolog.Nop())

	result, err := p.Chat(context.Background(), "m", nil, nil)
	if err != nil {
		t.Fatalf("Chat() returned error: %v", err)
	}
	if result.Text != "hi" {
		t.Errorf("Text = %q, want %q", result.Text, "hi")
	}
}

func TestWithRecordingSkipsOnProviderError(t *testing.T) {
	inner := &stubProvider{err: NewServerError("overloaded", 529, nil)}
	rec := &captureRecorder{}
	p := WithRecording(inner, "anthropic", rec, zerolog.Nop())

	if _, err := p.Chat(context.Background(), "m", nil, nil); err == nil {
		t.Fatal("Chat() returned nil, want provider error")
	}
	if len(rec.records) != 0 {
		t.Errorf("recorded %d records, want 0 on provider error", len(rec.records))
	}
}
