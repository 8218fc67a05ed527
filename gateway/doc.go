// Package gateway provides a provider-neutral client layer for Large
// Language Model (LLM) APIs.
//
// This package defines the canonical types, interfaces, and error taxonomy
// that let an application issue chat, vision, and tool-calling requests
// against interchangeable backends (Anthropic, OpenAI) without being coupled
// to any specific wire format.
//
// # Core Concepts
//
//  1. Messages: the Message type represents a conversation message with a
//     role (user, assistant, system) and content parts (text, image). System
//     messages are hoisted into the provider-level system field during
//     translation.
//
//  2. Tools: ToolSpec describes a tool the model may call; ToolCall is the
//     structured invocation a response carries back (at most one per
//     response, first tool-use block wins).
//
//  3. Provider interface: Chat, VisionChat, ChatWithTools, and
//     VisionChatWithTools form the uniform contract every adapter
//     implements. Adapters compose the shared circuit breaker
//     (gateway/breaker) and retry executor (gateway/retry) so backend
//     instability is absorbed the same way everywhere.
//
//  4. Errors: the Error type carries a tagged variant (config, rate_limit,
//     server, timeout, client, circuit_open), an HTTP status code, and a
//     retryable flag. Nothing is swallowed; retries and backoff are the only
//     local recovery, and a request is never silently downgraded to make it
//     succeed.
//
//  5. Recording: WithRecording wraps a Provider so reported token usage is
//     persisted through a Recorder (see the usage package).
//
// # Usage Example
//
//	provider := anthropic.NewProvider(anthropic.Config{APIKey: key}, logger)
//
//	result, err := provider.Chat(ctx, "claude-sonnet-4-5", []gateway.Message{
//	    gateway.NewTextMessage(gateway.RoleUser, "Hello!"),
//	}, nil)
//
// # Extension Points
//
// To add a new backend:
//  1. Implement the Provider interface
//  2. Translate between the canonical types and the backend's native schema
//  3. Map backend failures into the gateway.Error taxonomy so the shared
//     retry executor can classify them
package gateway
