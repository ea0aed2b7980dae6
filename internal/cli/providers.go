package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"coderag/config"
	"coderag/internal/adapter/analyzer"
	"coderag/internal/adapter/embedding"
	"coderag/internal/adapter/llm"
	"coderag/internal/adapter/retry"
	"coderag/internal/adapter/store"
	"coderag/internal/domain"
	"coderag/internal/port"
)

// newEmbedder builds the configured embedder wrapped with instrumentation
// and retries. withCache adds the LRU query cache on the outside.
func newEmbedder(ctx context.Context, cfg *config.Config, log *zap.Logger, withCache bool) (port.Embedder, error) {
	ec := cfg.Embedding
	provider := strings.ToLower(ec.Provider)

	var base port.Embedder
	var err error

	switch provider {
	case "openai":
		if ec.BaseURL != "" {
			base, err = embedding.NewOpenAICompatibleEmbedder(ec.APIKeyEnv, ec.Model, ec.BaseURL)
		} else {
			base, err = embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model)
		}
	case "deepseek":
		base, err = embedding.NewDeepSeekEmbedder(ec.APIKeyEnv, ec.Model)
	case "jina":
		base, err = embedding.NewJinaEmbedder(ec.APIKeyEnv, ec.Model)
	case "ollama":
		base = embedding.NewOllamaEmbedder(ec.Model, ec.BaseURL)
	case "gemini":
		base, err = embedding.NewGeminiEmbedder(ctx, ec.APIKeyEnv, ec.Model, ec.BaseURL)
	case "mock":
		base = embedding.NewMockEmbedder(ec.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var e port.Embedder = embedding.NewInstrumentedEmbedder(base, provider, log)
	e = embedding.NewRetryingEmbedder(e, retryPolicy(ec.Retries, ec.Timeout))

	if withCache && ec.CacheSize > 0 {
		cached, err := embedding.NewCachedEmbedder(e, ec.CacheSize)
		if err != nil {
			return nil, err
		}
		e = cached
	}
	return e, nil
}

// newCompleter builds the configured completer wrapped with instrumentation and retries.
func newCompleter(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.Completer, error) {
	cc := cfg.Completion
	provider := strings.ToLower(cc.Provider)

	var base port.Completer
	var err error

	switch provider {
	case "openai":
		base, err = llm.NewOpenAICompleter(cc.APIKeyEnv, cc.Model, cc.BaseURL)
	case "anthropic":
		base, err = llm.NewAnthropicCompleter(cc.APIKeyEnv, cc.Model, cc.BaseURL)
	case "gemini":
		base, err = llm.NewGeminiCompleter(ctx, cc.APIKeyEnv, cc.Model, cc.BaseURL)
	case "mock":
		base = llm.NewMockCompleter("I need more context.")
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", cc.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create completer: %w", err)
	}

	var c port.Completer = llm.NewInstrumentedCompleter(base, provider, log)
	return llm.NewRetryingCompleter(c, retryPolicy(cc.Retries, cc.Timeout)), nil
}

func retryPolicy(retries uint64, timeout time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = retries
	if timeout > 0 {
		p.Timeout = timeout
	}
	return p
}

// newCounter loads the configured tokenizer. An unavailable tiktoken
// vocabulary falls back to the approximate counter with a warning.
func newCounter(cfg *config.Config, log *zap.Logger) (port.TokenCounter, error) {
	counter, err := analyzer.NewCounter(cfg.Prompt.Tokenizer, cfg.Completion.Model)
	if err == nil {
		return counter, nil
	}
	if strings.EqualFold(cfg.Prompt.Tokenizer, analyzer.CounterApprox) {
		return nil, err
	}
	if kind := strings.ToLower(cfg.Prompt.Tokenizer); kind != "" && kind != analyzer.CounterTiktoken {
		return nil, err
	}
	log.Warn("tiktoken unavailable, using approximate token counts", zap.Error(err))
	return analyzer.NewApproxCounter(), nil
}

// loadStore reads the store and checks it was built with the configured embedding model.
func loadStore(path string, cfg *config.Config) (*domain.Store, error) {
	st, err := store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load store (run 'coderag ingest' first): %w", err)
	}
	if err := store.CheckModel(st, cfg.Embedding.Model); err != nil {
		return nil, err
	}
	return st, nil
}
