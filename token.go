package postmap

import "context"

// TokenCounter counts tokens in text for a specific model.
// LLM-backed providers use it to keep prompts within the model's budget.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
