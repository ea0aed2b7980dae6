package llm

import (
	"context"
	"errors"

	"coderag/internal/adapter/retry"
	"coderag/internal/domain"
	"coderag/internal/port"
)

// RetryingCompleter retries transient failures with a per-attempt timeout.
type RetryingCompleter struct {
	inner  port.Completer
	policy retry.Policy
}

func NewRetryingCompleter(inner port.Completer, policy retry.Policy) *RetryingCompleter {
	return &RetryingCompleter{inner: inner, policy: policy}
}

func (r *RetryingCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	var reply string
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		out, err := r.inner.Complete(ctx, req)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCompletionService) {
			err = domain.NewCompletionError("complete", modelOr(req.Model, r.inner.ModelName()), 0, err)
		}
		return "", err
	}
	return reply, nil
}

func (r *RetryingCompleter) ModelName() string {
	return r.inner.ModelName()
}
