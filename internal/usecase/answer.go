package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"coderag/internal/domain"
	"coderag/internal/logger"
	"coderag/internal/metrics"
	"coderag/internal/port"
)

// Answerer answers questions about the code in a store.
type Answerer struct {
	Store     *domain.Store
	Ranker    *Ranker
	Counter   port.TokenCounter
	Completer port.Completer

	Model       string // completion model; empty uses the completer default
	TokenBudget int
	TopN        int
	Temperature float64
	MaxTokens   int

	// PrintPrompt receives the full prompt before each request when non-nil.
	PrintPrompt io.Writer
}

// NewAnswerer fills in the default budget and top-n.
func NewAnswerer(st *domain.Store, ranker *Ranker, counter port.TokenCounter, completer port.Completer) *Answerer {
	return &Answerer{
		Store:       st,
		Ranker:      ranker,
		Counter:     counter,
		Completer:   completer,
		TokenBudget: DefaultTokenBudget,
		TopN:        DefaultTopN,
	}
}

// Prompt ranks the store against query and builds the budgeted prompt.
func (a *Answerer) Prompt(ctx context.Context, query string) (domain.PromptResult, error) {
	topN := a.TopN
	if topN == 0 {
		topN = DefaultTopN
	}
	budget := a.TokenBudget
	if budget == 0 {
		budget = DefaultTokenBudget
	}

	ranked, err := a.Ranker.Rank(ctx, query, a.Store, topN)
	if err != nil {
		return domain.PromptResult{}, err
	}

	res, err := BuildPrompt(query, ranked, budget, a.Counter)
	if err != nil {
		return domain.PromptResult{}, err
	}

	log := logger.FromContext(ctx)
	if res.OverBudget {
		log.Warn("prompt exceeds token budget without any snippets",
			zap.Int("tokens", res.Tokens),
			zap.Int("budget", res.Budget),
		)
	}
	log.Debug("prompt built",
		zap.Int("ranked", len(ranked)),
		zap.Int("included", res.Included),
		zap.Int("tokens", res.Tokens),
	)
	metrics.PromptTokens.Observe(float64(res.Tokens))
	metrics.PromptSnippets.Observe(float64(res.Included))
	return res, nil
}

// Answer builds the prompt for query and returns the model's reply.
func (a *Answerer) Answer(ctx context.Context, query string) (string, error) {
	res, err := a.Prompt(ctx, query)
	if err != nil {
		return "", err
	}

	if a.PrintPrompt != nil {
		if _, err := fmt.Fprintln(a.PrintPrompt, res.Prompt); err != nil {
			return "", fmt.Errorf("failed to print prompt: %w", err)
		}
	}

	reply, err := a.Completer.Complete(ctx, port.CompletionRequest{
		Model:       a.Model,
		Messages:    Messages(res.Prompt),
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrCompletionService) {
			err = domain.NewCompletionError("complete", a.Model, 0, err)
		}
		return "", err
	}
	return reply, nil
}

// Messages wraps prompt with the fixed system instruction.
func Messages(prompt string) []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: SystemInstruction},
		{Role: domain.RoleUser, Content: prompt},
	}
}
