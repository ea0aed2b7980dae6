package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"coderag/internal/domain"
	"coderag/internal/port"
)

// GeminiCompleter calls Gemini GenerateContent. System messages become the
// system instruction.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKeyEnv, model, baseURL string) (*GeminiCompleter, error) {
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
	return &GeminiCompleter{client: client, model: model}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	model := modelOr(req.Model, c.model)
	contents, cfg := geminiRequest(req)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", domain.NewCompletionError("complete", model, geminiStatus(err), err)
	}

	text := resp.Text()
	if text == "" {
		return "", domain.NewCompletionError("complete", model, 0, errors.New("response has no text content"))
	}
	return strings.TrimSpace(text), nil
}

func (c *GeminiCompleter) ModelName() string {
	return c.model
}

func geminiRequest(req port.CompletionRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	var contents []*genai.Content
	var system []*genai.Part
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, &genai.Part{Text: m.Content})
		case domain.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}
	return contents, cfg
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
