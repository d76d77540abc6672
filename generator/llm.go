package generator

import (
	"context"
	"time"
)

// TextCompletionClient is the text-completion capability used for prompt
// refinement and the other LLM-backed features.
type TextCompletionClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings configures an OpenAI-compatible completion endpoint.
type LLMSettings struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Referer    string
	Title      string
	MaxRetries int
	Timeout    time.Duration
}
