package openai

import (
	"encoding/json"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/modelgate/modelgate/gateway"
)

// toChatMessages converts canonical messages to OpenAI chat format. System
// messages are hoisted into a single leading system message, matching the
// hoisting the Anthropic translator performs. Image parts become image_url
// parts in multi-part content; parts with a malformed data URL are dropped.
func toChatMessages(msgs []gateway.Message) []openai.ChatCompletionMessage {
	var systemParts []string
	result := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)

	for _, msg := range msgs {
		if msg.Role == gateway.RoleSystem {
			for _, part := range msg.Content {
				if part.Type == gateway.ContentPartTypeText && part.Text != "" {
					systemParts = append(systemParts, part.Text)
				}
			}
			continue
		}

		converted, ok := toChatMessage(msg)
		if !ok {
			continue
		}
		result = append(result, converted)
	}

	if len(systemParts) > 0 {
		system := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: strings.Join(systemParts, "\n\n"),
		}
		result = append([]openai.ChatCompletionMessage{system}, result...)
	}

	return result
}

// toChatMessage converts a single canonical message. ok is false when no
// content part survives translation.
func toChatMessage(msg gateway.Message) (openai.ChatCompletionMessage, bool) {
	role := openai.ChatMessageRoleUser
	if msg.Role == gateway.RoleAssistant {
		role = openai.ChatMessageRoleAssistant
	}

	hasImages := false
	for _, part := range msg.Content {
		if part.Type == gateway.ContentPartTypeImage {
			hasImages = true
			break
		}
	}

	// Text-only messages use the plain string content field.
	if !hasImages {
		var texts []string
		for _, part := range msg.Content {
			if part.Type == gateway.ContentPartTypeText {
				texts = append(texts, part.Text)
			}
		}
		if len(texts) == 0 {
			return openai.ChatCompletionMessage{}, false
		}
		return openai.ChatCompletionMessage{
			Role:    role,
			Content: strings.Join(texts, "\n"),
		}, true
	}

	parts := make([]openai.ChatMessagePart, 0, len(msg.Content))
	for _, part := range msg.Content {
		switch part.Type {
		case gateway.ContentPartTypeText:
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: part.Text,
			})
		case gateway.ContentPartTypeImage:
			if _, _, ok := gateway.ParseDataURL(part.URL); !ok {
				continue
			}
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: part.URL},
			})
		}
	}
	if len(parts) == 0 {
		return openai.ChatCompletionMessage{}, false
	}

	return openai.ChatCompletionMessage{
		Role:         role,
		MultiContent: parts,
	}, true
}

// toTools converts canonical tool specs to OpenAI function declarations.
func toTools(specs []gateway.ToolSpec) []openai.Tool {
	result := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		schemaType := spec.Schema.Type
		if schemaType == "" {
			schemaType = "object"
		}
		params := map[string]interface{}{
			"type": schemaType,
		}
		if spec.Schema.Properties != nil {
			params["properties"] = spec.Schema.Properties
		}
		if len(spec.Schema.Required) > 0 {
			params["required"] = spec.Schema.Required
		}
		for k, v := range spec.Schema.ExtraFields {
			params[k] = v
		}

		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}
	return result
}

// fromResponse extracts the canonical result from a chat completion.
// The first tool call wins; later ones are ignored.
func fromResponse(resp *openai.ChatCompletionResponse) *gateway.ChatResult {
	result := &gateway.ChatResult{}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0]
		result.Text = choice.Message.Content
		result.FinishReason = string(choice.FinishReason)

		if len(choice.Message.ToolCalls) > 0 {
			call := choice.Message.ToolCalls[0]
			args := make(map[string]interface{})
			if call.Function.Arguments != "" {
				// Unparseable arguments leave an empty map; the call
				// itself is still surfaced.
				_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
			}
			result.FunctionCall = &gateway.ToolCall{
				Name: call.Function.Name,
				Args: args,
			}
		}
	}

	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		result.Tokens = &gateway.TokenUsage{
			PromptTokens:     int64(resp.Usage.PromptTokens),
			CompletionTokens: int64(resp.Usage.CompletionTokens),
			TotalTokens:      int64(resp.Usage.PromptTokens) + int64(resp.Usage.CompletionTokens),
		}
	}

	return result
}

// convertError maps go-openai SDK errors into the gateway taxonomy so the
// shared retry executor classifies them the same way as raw HTTP statuses.
func convertError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		// Transport-level failure; the executor normalizes it.
		return err
	}

	switch apiErr.HTTPStatusCode {
	case 429:
		return gateway.NewRateLimitError(apiErr.Message, nil, apiErr)
	case 500, 503, 529:
		return gateway.NewServerError(apiErr.Message, apiErr.HTTPStatusCode, apiErr)
	default:
		return gateway.NewClientError(apiErr.Message, apiErr.HTTPStatusCode, apiErr)
	}
}
