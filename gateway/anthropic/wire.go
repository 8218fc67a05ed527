package anthropic

// Wire types for the Anthropic Messages API. The schema version is tracked
// explicitly via the hard-coded apiVersion header constant in client.go
// rather than negotiated.

// messagesRequest is the body POSTed to /v1/messages.
type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int64         `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  *toolChoice   `json:"tool_choice,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// wireMessage is a message in the Anthropic format.
type wireMessage struct {
	Role    string      `json:"role"`
	Content []wireBlock `json:"content"`
}

// wireBlock represents a content block in Anthropic format.
type wireBlock struct {
	Type string `json:"type"` // "text", "image", "tool_use"

	// For type=text
	Text string `json:"text,omitempty"`

	// For type=image
	Source *imageSource `json:"source,omitempty"`

	// For type=tool_use (responses only)
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`
}

// imageSource holds base64 image data for vision requests.
type imageSource struct {
	Type      string `json:"type"`       // always "base64"
	MediaType string `json:"media_type"` // e.g. "image/png"
	Data      string `json:"data"`
}

// wireTool is a tool declaration in the Anthropic format.
type wireTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// toolChoice controls how the model picks tools: {"type":"auto"} lets it
// choose freely, {"type":"tool","name":N} forces the named tool.
type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// messagesResponse is the Messages API response.
type messagesResponse struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	Role       string      `json:"role"`
	Model      string      `json:"model"`
	Content    []wireBlock `json:"content"`
	StopReason string      `json:"stop_reason"` // e.g. "end_turn", "tool_use", "max_tokens"
	Usage      *wireUsage  `json:"usage,omitempty"`
}

// wireUsage carries the provider's token counters. Absent fields decode to
// zero; a wholly absent usage object stays nil so callers can tell "not
// reported" from "zero tokens".
type wireUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// errorEnvelope is the error body shape returned on non-2xx statuses.
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
