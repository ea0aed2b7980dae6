package analyzer

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"coderag/internal/port"
)

const (
	CounterTiktoken = "tiktoken"
	CounterApprox   = "approx"
)

// ApproxCounter estimates token counts without a vocabulary: each word costs
// about 1.3 tokens and each punctuation rune one token.
type ApproxCounter struct{}

func NewApproxCounter() *ApproxCounter {
	return &ApproxCounter{}
}

// CountTokens never fails.
func (ApproxCounter) CountTokens(text string) (int, error) {
	words := splitWords(text)
	symbols := 0
	for _, r := range text {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			symbols++
		}
	}
	if len(words) == 0 {
		return symbols, nil
	}
	return int(math.Ceil(float64(len(words))*1.3)) + symbols, nil
}

// NewCounter returns the token counter named by kind for model.
func NewCounter(kind, model string) (port.TokenCounter, error) {
	switch strings.ToLower(kind) {
	case "", CounterTiktoken:
		c, err := NewTiktokenCounter(model)
		if err != nil {
			return nil, err
		}
		return c, nil
	case CounterApprox:
		return NewApproxCounter(), nil
	default:
		return nil, fmt.Errorf("unsupported tokenizer: %s", kind)
	}
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
