package embedding

import (
	"context"
	"errors"

	"coderag/internal/adapter/retry"
	"coderag/internal/domain"
	"coderag/internal/port"
)

// RetryingEmbedder retries transient failures and bounds every attempt with
// the policy timeout. Errors always come back as embedding service errors.
type RetryingEmbedder struct {
	inner  port.Embedder
	policy retry.Policy
}

func NewRetryingEmbedder(inner port.Embedder, policy retry.Policy) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, policy: policy}
}

func (r *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var vec []float64
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		v, err := r.inner.Embed(ctx, text)
		if err != nil {
			return err
		}
		vec = v
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingService) {
			err = domain.NewEmbeddingError("embed", r.inner.ModelName(), 0, err)
		}
		return nil, err
	}
	return vec, nil
}

func (r *RetryingEmbedder) ModelName() string {
	return r.inner.ModelName()
}
