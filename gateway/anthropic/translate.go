package anthropic

import (
	"strings"

	"github.com/samber/lo"

	"github.com/modelgate/modelgate/gateway"
)

// buildRequest translates canonical messages and tools into an Anthropic
// Messages API request. System-role messages are hoisted into the top-level
// system field, concatenated with a blank-line separator in input order.
// Content parts that fail to translate (malformed image data URLs) are
// dropped silently; messages left with no surviving parts are dropped too.
func buildRequest(model string, messages []gateway.Message, tools []gateway.ToolSpec, forceToolName string, temperature *float64, maxTokens int64) *messagesRequest {
	var systemParts []string
	wireMsgs := make([]wireMessage, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == gateway.RoleSystem {
			for _, part := range msg.Content {
				if part.Type == gateway.ContentPartTypeText && part.Text != "" {
					systemParts = append(systemParts, part.Text)
				}
			}
			continue
		}

		blocks := toWireBlocks(msg.Content)
		if len(blocks) == 0 {
			continue
		}
		wireMsgs = append(wireMsgs, wireMessage{
			Role:    string(msg.Role),
			Content: blocks,
		})
	}

	req := &messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      strings.Join(systemParts, "\n\n"),
		Messages:    wireMsgs,
		Temperature: temperature,
	}

	if len(tools) > 0 {
		req.Tools = lo.Map(tools, func(spec gateway.ToolSpec, _ int) wireTool {
			return toWireTool(spec)
		})
		req.ToolChoice = &toolChoice{Type: "auto"}
		if forceToolName != "" {
			req.ToolChoice = &toolChoice{Type: "tool", Name: forceToolName}
		}
	}

	return req
}

// toWireBlocks maps canonical content parts into Anthropic content blocks.
// Text parts map 1:1; image parts require a parseable data URL and are
// otherwise dropped, not errored.
func toWireBlocks(parts []gateway.ContentPart) []wireBlock {
	blocks := make([]wireBlock, 0, len(parts))
	for _, part := range parts {
		switch part.Type {
		case gateway.ContentPartTypeText:
			blocks = append(blocks, wireBlock{
				Type: "text",
				Text: part.Text,
			})
		case gateway.ContentPartTypeImage:
			mimeType, data, ok := gateway.ParseDataURL(part.URL)
			if !ok {
				continue
			}
			blocks = append(blocks, wireBlock{
				Type: "image",
				Source: &imageSource{
					Type:      "base64",
					MediaType: mimeType,
					Data:      data,
				},
			})
		}
	}
	return blocks
}

// toWireTool maps a canonical tool spec into Anthropic's tool declaration.
func toWireTool(spec gateway.ToolSpec) wireTool {
	schemaType := spec.Schema.Type
	if schemaType == "" {
		schemaType = "object"
	}

	schema := map[string]interface{}{
		"type": schemaType,
	}
	if spec.Schema.Properties != nil {
		schema["properties"] = spec.Schema.Properties
	}
	if len(spec.Schema.Required) > 0 {
		schema["required"] = spec.Schema.Required
	}
	for k, v := range spec.Schema.ExtraFields {
		schema[k] = v
	}

	return wireTool{
		Name:        spec.Name,
		Description: spec.Description,
		InputSchema: schema,
	}
}

// extractResult pulls the canonical text, tool call, and token usage out of a
// native response. All text blocks concatenate in order; only the first
// tool_use block is extracted; absent usage maps to a nil *TokenUsage.
func extractResult(resp *messagesResponse) *gateway.ChatResult {
	var text strings.Builder
	var call *gateway.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if call != nil {
				continue // first tool-use block wins
			}
			args := block.Input
			if args == nil {
				args = make(map[string]interface{})
			}
			call = &gateway.ToolCall{
				Name: block.Name,
				Args: args,
			}
		}
	}

	return &gateway.ChatResult{
		Text:         text.String(),
		FunctionCall: call,
		FinishReason: resp.StopReason,
		Tokens:       extractUsage(resp.Usage),
	}
}

// extractUsage maps the provider's usage counters into canonical token
// accounting, defaulting absent fields to 0.
func extractUsage(usage *wireUsage) *gateway.TokenUsage {
	if usage == nil {
		return nil
	}
	return &gateway.TokenUsage{
		PromptTokens:     usage.InputTokens,
		CompletionTokens: usage.OutputTokens,
		TotalTokens:      usage.InputTokens + usage.OutputTokens,
	}
}
