package port

import (
	"context"

	"coderag/internal/domain"
)

// Completer requests a chat completion from a language model.
type Completer interface {
	// Complete returns the text content of the model's reply.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the default model used when the request names none.
	ModelName() string
}

// CompletionRequest is a provider-neutral chat completion request.
type CompletionRequest struct {
	Model       string
	Messages    []domain.Message
	Temperature float64
	MaxTokens   int // 0 lets the provider decide
}
