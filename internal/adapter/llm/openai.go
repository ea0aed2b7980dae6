package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"coderag/internal/domain"
	"coderag/internal/port"
)

const OpenAIBaseURL = "https://api.openai.com/v1"

// OpenAICompleter calls an OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter reads the API key from apiKeyEnv. baseURL may be empty.
func NewOpenAICompleter(apiKeyEnv, model, baseURL string) (*OpenAICompleter, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return NewOpenAICompleterWithKey(apiKey, model, baseURL), nil
}

func NewOpenAICompleterWithKey(apiKey, model, baseURL string) *OpenAICompleter {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &OpenAICompleter{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	model := modelOr(req.Model, c.model)

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: openAITemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", domain.NewCompletionError("complete", model, openAIStatus(err), err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewCompletionError("complete", model, 0, errors.New("response has no choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAICompleter) ModelName() string {
	return c.model
}

// openAITemperature maps 0 to the smallest positive float32: go-openai omits a
// zero temperature, which the API would then default to 1.
func openAITemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

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

func modelOr(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
