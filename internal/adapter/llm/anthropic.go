package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"coderag/internal/domain"
	"coderag/internal/port"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicCompleter calls the Anthropic Messages API.
type AnthropicCompleter struct {
	client anthropicsdk.Client
	model  string
}

// NewAnthropicCompleter reads the API key from apiKeyEnv. baseURL may be empty.
func NewAnthropicCompleter(apiKeyEnv, model, baseURL string) (*AnthropicCompleter, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return NewAnthropicCompleterWithKey(apiKey, model, baseURL), nil
}

func NewAnthropicCompleterWithKey(apiKey, model, baseURL string) *AnthropicCompleter {
	// Retries are handled by RetryingCompleter.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicCompleter{
		client: anthropicsdk.NewClient(opts...),
		model:  model,
	}
}

func (c *AnthropicCompleter) Complete(ctx context.Context, req port.CompletionRequest) (string, error) {
	model := modelOr(req.Model, c.model)

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropicsdk.Float(req.Temperature),
	}

	var system []string
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropicsdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", domain.NewCompletionError("complete", model, anthropicStatus(err), err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", domain.NewCompletionError("complete", model, 0, errors.New("response has no text content"))
	}
	return strings.TrimSpace(sb.String()), nil
}

func (c *AnthropicCompleter) ModelName() string {
	return c.model
}

func anthropicStatus(err error) int {
	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
