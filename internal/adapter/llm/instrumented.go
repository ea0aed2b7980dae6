package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"coderag/internal/metrics"
	"coderag/internal/port"
)

// InstrumentedCompleter records request metrics and logs each call.
type InstrumentedCompleter struct {
	inner    port.Completer
	provider string
	logger   *zap.Logger
}

func NewInstrumentedCompleter(inner port.Completer, provider string, logger *zap.Logger) *InstrumentedCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedCompleter{inner: inner, provider: provider, logger: logger}
}

func (c *InstrumentedCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	model := modelOr(req.Model, c.inner.ModelName())
	start := time.Now()

	reply, err := c.inner.Complete(ctx, req)

	duration := time.Since(start)
	if err != nil {
		metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "error").Inc()
		c.logger.Warn("completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", err
	}

	metrics.CompletionRequestsTotal.WithLabelValues(c.provider, model, "success").Inc()
	metrics.CompletionRequestDuration.WithLabelValues(c.provider, model).Observe(duration.Seconds())
	c.logger.Info("completion request",
		zap.String("provider", c.provider),
		zap.String("model", model),
		zap.Int("messages", len(req.Messages)),
		zap.Int("reply_chars", len(reply)),
		zap.Duration("duration", duration),
	)
	return reply, nil
}

func (c *InstrumentedCompleter) ModelName() string {
	return c.inner.ModelName()
}
