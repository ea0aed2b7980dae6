package port

// TokenCounter counts tokenizer units for a specific model.
type TokenCounter interface {
	CountTokens(text string) (int, error)
}
