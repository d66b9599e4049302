package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion. Zero Temperature or MaxTokens leaves the
// provider default in place.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type Provider interface {
	// Complete returns the generated text of the first candidate.
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
	Close() error
}
