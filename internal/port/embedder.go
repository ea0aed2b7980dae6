package port

import "context"

// Embedder turns text into a vector using a remote or local model.
type Embedder interface {
	// Embed returns one embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}
