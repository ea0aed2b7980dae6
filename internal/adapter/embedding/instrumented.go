package embedding

import (
	"context"
	"time"

	"go.uber.org/zap"

	"coderag/internal/metrics"
	"coderag/internal/port"
)

// InstrumentedEmbedder records request metrics and logs failures.
type InstrumentedEmbedder struct {
	inner    port.Embedder
	provider string
	logger   *zap.Logger
}

func NewInstrumentedEmbedder(inner port.Embedder, provider string, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, provider: provider, logger: logger}
}

func (e *InstrumentedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	model := e.inner.ModelName()
	start := time.Now()

	vec, err := e.inner.Embed(ctx, text)

	duration := time.Since(start)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "error").Inc()
		e.logger.Warn("embedding request failed",
			zap.String("provider", e.provider),
			zap.String("model", model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, model).Observe(duration.Seconds())
	e.logger.Debug("embedding request",
		zap.String("provider", e.provider),
		zap.String("model", model),
		zap.Int("chars", len(text)),
		zap.Int("dimension", len(vec)),
		zap.Duration("duration", duration),
	)
	return vec, nil
}

func (e *InstrumentedEmbedder) ModelName() string {
	return e.inner.ModelName()
}
