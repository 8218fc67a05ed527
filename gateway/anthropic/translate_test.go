package anthropic

import (
	"testing"

	"github.com/modelgate/modelgate/gateway"
)

func TestBuildRequestHoistsSystemMessages(t *testing.T) {
	messages := []gateway.Message{
		gateway.NewTextMessage(gateway.RoleSystem, "You are a helpful assistant."),
		gateway.NewTextMessage(gateway.RoleUser, "hello"),
		gateway.NewTextMessage(gateway.RoleSystem, "Answer briefly."),
		gateway.NewTextMessage(gateway.RoleAssistant, "hi"),
	}

	req := buildRequest("claude-sonnet-4-5", messages, nil, "", nil, 2048)

	want := "You are a helpful assistant.\n\nAnswer briefly."
	if req.System != want {
		t.Errorf("System = %q, want %q", req.System, want)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2 (system messages hoisted)", len(req.Messages))
	}
	if req.Messages[0].Role != "user" || req.Messages[1].Role != "assistant" {
		t.Errorf("roles = %q, %q; want user, assistant", req.Messages[0].Role, req.Messages[1].Role)
	}
}

func TestBuildRequestCarriesModelAndLimits(t *testing.T) {
	temp := 0.7
	req := buildRequest("claude-sonnet-4-5", []gateway.Message{
		gateway.NewTextMessage(gateway.RoleUser, "hello"),
	}, nil, "", &temp, 1024)

	if req.Model != "claude-sonnet-4-5" {
		t.Errorf("Model = %q, want %q", req.Model, "claude-sonnet-4-5")
	}
	if req.MaxTokens != 1024 {
		t.Errorf("MaxTokens = %d, want 1024", req.MaxTokens)
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", req.Temperature)
	}
}

func TestBuildRequestDropsMalformedImages(t *testing.T) {
	messages := []gateway.Message{
		{
			Role: gateway.RoleUser,
			Content: []gateway.ContentPart{
				{Type: gateway.ContentPartTypeImage, URL: "https://example.com/cat.png"},
				{Type: gateway.ContentPartTypeText, Text: "describe this"},
			},
		},
		gateway.NewImageMessage(gateway.RoleUser, "not a data url"),
	}

	req := buildRequest("m", messages, nil, "", nil, 2048)

	if len(req.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1 (empty message dropped)", len(req.Messages))
	}
	blocks := req.Messages[0].Content
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1 (malformed image dropped)", len(blocks))
	}
	if blocks[0].Type != "text" {
		t.Errorf("block type = %q, want %q", blocks[0].Type, "text")
	}
}

func TestBuildRequestTranslatesImages(t *testing.T) {
	url := gateway.ImageDataURL("image/png", "iVBORw0KGgo=")
	messages := []gateway.Message{gateway.NewImageMessage(gateway.RoleUser, url)}

	req := buildRequest("m", messages, nil, "", nil, 2048)

	if len(req.Messages) != 1 || len(req.Messages[0].Content) != 1 {
		t.Fatal("expected one message with one block")
	}
	block := req.Messages[0].Content[0]
	if block.Type != "image" {
		t.Fatalf("block type = %q, want %q", block.Type, "image")
	}
	if block.Source == nil {
		t.Fatal("Source is nil")
	}
	if block.Source.Type != "base64" {
		t.Errorf("Source.Type = %q, want %q", block.Source.Type, "base64")
	}
	if block.Source.MediaType != "image/png" {
		t.Errorf("MediaType = %q, want %q", block.Source.MediaType, "image/png")
	}
	if block.Source.Data != "iVBORw0KGgo=" {
		t.Errorf("Data = %q, want %q", block.Source.Data, "iVBORw0KGgo=")
	}
}

func TestBuildRequestToolChoice(t *testing.T) {
	tools := []gateway.ToolSpec{
		{
			Name:        "get_weather",
			Description: "Look up the weather",
			Schema: gateway.ToolSchema{
				Properties: map[string]interface{}{
					"city": map[string]interface{}{"type": "string"},
				},
				Required: []string{"city"},
			},
		},
	}
	messages := []gateway.Message{gateway.NewTextMessage(gateway.RoleUser, "weather in Oslo?")}

	req := buildRequest("m", messages, tools, "", nil, 3000)
	if req.ToolChoice == nil || req.ToolChoice.Type != "auto" {
		t.Errorf("ToolChoice = %+v, want auto", req.ToolChoice)
	}
	if len(req.Tools) != 1 {
		t.Fatalf("len(Tools) = %d, want 1", len(req.Tools))
	}
	schema := req.Tools[0].InputSchema
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object default", schema["type"])
	}
	if _, ok := schema["properties"]; !ok {
		t.Error("schema missing properties")
	}

	forced := buildRequest("m", messages, tools, "get_weather", nil, 3000)
	if forced.ToolChoice == nil || forced.ToolChoice.Type != "tool" || forced.ToolChoice.Name != "get_weather" {
		t.Errorf("ToolChoice = %+v, want forced tool get_weather", forced.ToolChoice)
	}
}

func TestToWireToolMergesExtraFields(t *testing.T) {
	tool := toWireTool(gateway.ToolSpec{
		Name: "search",
		Schema: gateway.ToolSchema{
			Type: "object",
			ExtraFields: map[string]interface{}{
				"additionalProperties": false,
			},
		},
	})

	if tool.InputSchema["additionalProperties"] != false {
		t.Errorf("InputSchema missing merged extra field: %+v", tool.InputSchema)
	}
}

func TestExtractResultConcatenatesText(t *testing.T) {
	resp := &messagesResponse{
		Content: []wireBlock{
			{Type: "text", Text: "Hello, "},
			{Type: "text", Text: "world."},
		},
		StopReason: "end_turn",
	}

	result := extractResult(resp)
	if result.Text != "Hello, world." {
		t.Errorf("Text = %q, want %q", result.Text, "Hello, world.")
	}
	if result.FinishReason != "end_turn" {
		t.Errorf("FinishReason = %q, want %q", result.FinishReason, "end_turn")
	}
	if result.FunctionCall != nil {
		t.Errorf("FunctionCall = %+v, want nil", result.FunctionCall)
	}
}

func TestExtractResultFirstToolUseWins(t *testing.T) {
	resp := &messagesResponse{
		Content: []wireBlock{
			{Type: "tool_use", Name: "first", Input: map[string]interface{}{"a": float64(1)}},
			{Type: "tool_use", Name: "second", Input: map[string]interface{}{"b": float64(2)}},
		},
		StopReason: "tool_use",
	}

	result := extractResult(resp)
	if result.FunctionCall == nil {
		t.Fatal("FunctionCall is nil")
	}
	if result.FunctionCall.Name != "first" {
		t.Errorf("FunctionCall.Name = %q, want %q", result.FunctionCall.Name, "first")
	}
}

func TestExtractResultNilToolInputBecomesEmptyMap(t *testing.T) {
	resp := &messagesResponse{
		Content: []wireBlock{{Type: "tool_use", Name: "noop"}},
	}

	result := extractResult(resp)
	if result.FunctionCall == nil {
		t.Fatal("FunctionCall is nil")
	}
	if result.FunctionCall.Args == nil {
		t.Error("Args is nil, want empty map")
	}
}

func TestExtractUsage(t *testing.T) {
	if got := extractUsage(nil); got != nil {
		t.Errorf("extractUsage(nil) = %+v, want nil", got)
	}

	got := extractUsage(&wireUsage{InputTokens: 12, OutputTokens: 34})
	if got == nil {
		t.Fatal("extractUsage returned nil")
	}
	if got.PromptTokens != 12 || got.CompletionTokens != 34 || got.TotalTokens != 46 {
		t.Errorf("usage = %+v, want 12/34/46", got)
	}
}
