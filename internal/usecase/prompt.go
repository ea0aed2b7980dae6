package usecase

import (
	"fmt"

	"coderag/internal/domain"
	"coderag/internal/port"
)

const (
	// Preamble opens every prompt.
	Preamble = `Use the below snippets of code. If the snippets do not provide enough context, write "I need more context."`

	// SystemInstruction is sent as the system message of every completion.
	SystemInstruction = "You answer questions about the snippets of code and assist in code generation."

	// DefaultTokenBudget leaves 500 tokens of a 4096-token context for the reply.
	DefaultTokenBudget = 4096 - 500
)

// QuestionSuffix is appended after the included snippets.
func QuestionSuffix(query string) string {
	return "\n\nQuestion: " + query
}

// SnippetBlock formats one ranked result for the prompt.
func SnippetBlock(r domain.RankedResult) string {
	locator := r.SourceLocator
	if locator == "" {
		locator = "code"
	}
	return "\n\nSnippet of " + locator + ":\n\"\"\"\n" + r.Text + "\n\"\"\""
}

// BuildPrompt adds snippets in ranked order until the next one would push
// the prompt past budget, then stops. Later, smaller snippets are not tried.
// When the preamble and question alone exceed budget the prompt is returned
// anyway with OverBudget set.
func BuildPrompt(query string, ranked []domain.RankedResult, budget int, counter port.TokenCounter) (domain.PromptResult, error) {
	suffix := QuestionSuffix(query)
	message := Preamble

	tokens, err := counter.CountTokens(message + suffix)
	if err != nil {
		return domain.PromptResult{}, fmt.Errorf("failed to count tokens: %w", err)
	}

	res := domain.PromptResult{Budget: budget, OverBudget: tokens > budget}

	for _, r := range ranked {
		block := SnippetBlock(r)
		n, err := counter.CountTokens(message + block + suffix)
		if err != nil {
			return domain.PromptResult{}, fmt.Errorf("failed to count tokens: %w", err)
		}
		if n > budget {
			break
		}
		message += block
		tokens = n
		res.Included++
	}

	res.Prompt = message + suffix
	res.Tokens = tokens
	return res, nil
}
