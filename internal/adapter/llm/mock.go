package llm

import (
	"context"
	"sync"

	"coderag/internal/port"
)

// MockCompleter replies with a fixed answer and records every request.
type MockCompleter struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests []port.CompletionRequest
}

func NewMockCompleter(reply string) *MockCompleter {
	return &MockCompleter{Reply: reply}
}

func (c *MockCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	return c.Reply, nil
}

// Requests returns the requests received so far.
func (c *MockCompleter) Requests() []port.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]port.CompletionRequest(nil), c.requests...)
}

func (c *MockCompleter) ModelName() string {
	return "mock"
}
