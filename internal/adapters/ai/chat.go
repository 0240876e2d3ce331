package ai

import "context"

// MessageRole defines the role of a message sender.
type MessageRole string

const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
)

// Message represents a single message in a completion request.
type Message struct {
	Role    MessageRole
	Content string
}

// System is a convenience constructor for a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User is a convenience constructor for a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// CompletionRequest represents a plain-text chat completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completion is the normalized result of a chat completion. Multimodal and
// structured responses are collapsed to plain text by the provider clients.
type Completion struct {
	Text  string
	Usage Usage
}

// Usage tracks token consumption for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatClient is the contract each provider backend satisfies.
type ChatClient interface {
	// Complete sends a completion request and returns the normalized text.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
