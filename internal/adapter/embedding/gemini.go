package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"

	"coderag/internal/domain"
)

// GeminiEmbedder embeds text with the Gemini API.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder reads the API key from apiKeyEnv. baseURL may be empty.
func NewGeminiEmbedder(ctx context.Context, apiKeyEnv, model, baseURL string) (*GeminiEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, domain.NewEmbeddingError("embed", e.model, geminiStatus(err), err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, domain.NewEmbeddingError("embed", e.model, 0, errors.New("empty embedding response"))
	}
	return toFloat64(resp.Embeddings[0].Values), nil
}

func (e *GeminiEmbedder) ModelName() string {
	return e.model
}

// geminiStatus extracts the HTTP status code from a genai error, 0 if unknown.
func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
