package gateway

import (
	"encoding/json"
	"strings"
)

// MessageRole represents the role of a message in a conversation.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Message represents a single message in a conversation.
// This is provider-neutral; ordering within a conversation is significant.
// System-role messages may appear anywhere in the sequence and are hoisted
// into the provider-level system field during translation.
type Message struct {
	Role    MessageRole
	Content []ContentPart
}

// ContentPart represents a single content part within a message.
// It is either text or an image carried as a data URL.
type ContentPart struct {
	Type ContentPartType
	Text string // For text parts
	URL  string // For image parts: data:<mime>;base64,<data>
}

// ContentPartType represents the type of content part.
type ContentPartType string

const (
	ContentPartTypeText  ContentPartType = "text"
	ContentPartTypeImage ContentPartType = "image"
)

// ToolSpec represents a tool definition that can be provided to a model.
type ToolSpec struct {
	Name        string
	Description string
	Schema      ToolSchema
}

// ToolSchema represents the JSON schema for a tool's input parameters.
type ToolSchema struct {
	Type        string
	Properties  map[string]interface{}
	Required    []string
	ExtraFields map[string]interface{} // For any additional schema fields
}

// ToolCall represents a structured tool invocation returned by the model.
// A response carries at most one: the first tool-use block wins and later
// blocks are ignored.
type ToolCall struct {
	Name string
	Args map[string]interface{}
}

// TokenUsage represents token accounting reported by a provider.
// TotalTokens is always PromptTokens + CompletionTokens. A response with no
// usage block yields a nil *TokenUsage rather than zeroes, so callers can
// distinguish "not reported" from "zero tokens used".
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// ChatResult is the canonical result of any gateway operation.
// FinishReason is the provider's native stop reason, passed through
// unchanged; no cross-provider canonicalization is attempted.
type ChatResult struct {
	Text         string
	FunctionCall *ToolCall
	FinishReason string
	Tokens       *TokenUsage
}

// NewTextMessage creates a new message with a single text part.
func NewTextMessage(role MessageRole, text string) Message {
	return Message{
		Role: role,
		Content: []ContentPart{
			{
				Type: ContentPartTypeText,
				Text: text,
			},
		},
	}
}

// NewImageMessage creates a new message with a single image part.
// url must be a data URL of the form data:<mime>;base64,<data>.
func NewImageMessage(role MessageRole, url string) Message {
	return Message{
		Role: role,
		Content: []ContentPart{
			{
				Type: ContentPartTypeImage,
				URL:  url,
			},
		},
	}
}

// ImageDataURL builds a data URL from a mime type and raw base64 payload.
func ImageDataURL(mimeType, base64Data string) string {
	return "data:" + mimeType + ";base64," + base64Data
}

// ParseDataURL splits a data URL into its mime type and raw base64 payload.
// It returns ok=false for anything that does not match
// data:<mime>;base64,<data>; translators drop such parts silently.
func ParseDataURL(url string) (mimeType, data string, ok bool) {
	rest, found := strings.CutPrefix(url, "data:")
	if !found {
		return "", "", false
	}
	mimeType, data, found = strings.Cut(rest, ";base64,")
	if !found || mimeType == "" {
		return "", "", false
	}
	return mimeType, data, true
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
