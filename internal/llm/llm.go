package llm

import (
	"context"
	"errors"
)

// Generator produces free text from a system prompt and a user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string, maxTokens int) (Result, error)
}

// Result is a completion and the model that produced it.
type Result struct {
	Text  string
	Model string
}

var (
	// ErrNotConfigured is returned when no provider credentials or models are set.
	ErrNotConfigured = errors.New("LLM not configured")
	// ErrAllModelsFailed wraps the last failure after every model was tried.
	ErrAllModelsFailed = errors.New("all LLM models failed")
)

// PlaceholderClient stands in when no provider is configured.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, system, user string, maxTokens int) (Result, error) {
	return Result{}, ErrNotConfigured
}
