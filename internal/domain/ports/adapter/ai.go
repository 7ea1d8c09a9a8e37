package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries the prompt and the decoding parameters for one call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	TopP        float64
	Stop        []string
	MaxTokens   int
}

// Completion is the raw text reply; it is untrusted and may be empty.
type Completion struct {
	Text     string
	Model    string
	Provider string
	Usage    Usage
}

// AIServiceAdapter is the port to the external classification model.
type AIServiceAdapter interface {
	Provider() string

	// CountTokens returns the prompt token count for messages (best-effort where the
	// provider has no exact counter).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
