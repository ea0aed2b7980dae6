package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"coderag/internal/domain"
)

const (
	OpenAIBaseURL   = "https://api.openai.com/v1"
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	JinaBaseURL     = "https://api.jina.ai/v1"
	OllamaBaseURL   = "http://localhost:11434/v1"
)

// OpenAIEmbedder embeds text through any OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(apiKeyEnv, model string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, OpenAIBaseURL)
}

func NewDeepSeekEmbedder(apiKeyEnv, model string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, DeepSeekBaseURL)
}

func NewJinaEmbedder(apiKeyEnv, model string) (*OpenAIEmbedder, error) {
	return NewOpenAICompatibleEmbedder(apiKeyEnv, model, JinaBaseURL)
}

// NewOllamaEmbedder talks to a local Ollama server, which ignores the API key.
func NewOllamaEmbedder(model, baseURL string) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = OllamaBaseURL
	}
	return NewOpenAIEmbedderWithKey("ollama", model, baseURL)
}

// NewOpenAICompatibleEmbedder reads the API key from apiKeyEnv.
func NewOpenAICompatibleEmbedder(apiKeyEnv, model, baseURL string) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return NewOpenAIEmbedderWithKey(apiKey, model, baseURL), nil
}

// NewOpenAIEmbedderWithKey builds an embedder from an explicit key.
func NewOpenAIEmbedderWithKey(apiKey, model, baseURL string) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Embed requests a single embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, domain.NewEmbeddingError("embed", e.model, openAIStatus(err), err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, domain.NewEmbeddingError("embed", e.model, 0, errors.New("empty embedding response"))
	}
	return toFloat64(resp.Data[0].Embedding), nil
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// openAIStatus extracts the HTTP status from a go-openai error, 0 if unknown.
func openAIStatus(err error) int {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	return 0
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
