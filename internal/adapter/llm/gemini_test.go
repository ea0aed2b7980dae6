package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"coderag/internal/domain"
	"coderag/internal/port"
)

func TestGeminiRequest_SystemInstruction(t *testing.T) {
	req := sampleRequest()
	req.Messages = append(req.Messages, domain.Message{Role: domain.RoleAssistant, Content: "Earlier reply"})
	req.MaxTokens = 256

	contents, cfg := geminiRequest(req)

	require.NotNil(t, cfg.SystemInstruction)
	require.Len(t, cfg.SystemInstruction.Parts, 1)
	assert.Equal(t, "You answer questions.", cfg.SystemInstruction.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "What does add do?", contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, contents[1].Role)

	require.NotNil(t, cfg.Temperature)
	assert.Equal(t, float32(0), *cfg.Temperature)
	assert.Equal(t, int32(256), cfg.MaxOutputTokens)
}

func TestGeminiRequest_NoSystem(t *testing.T) {
	_, cfg := geminiRequest(port.CompletionRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	assert.Nil(t, cfg.SystemInstruction)
	assert.Zero(t, cfg.MaxOutputTokens)
}

func TestNewGeminiCompleter_MissingKey(t *testing.T) {
	t.Setenv("CODERAG_TEST_GEMINI_KEY", "")
	_, err := NewGeminiCompleter(context.Background(), "CODERAG_TEST_GEMINI_KEY", "gemini-2.0-flash", "")
	assert.ErrorContains(t, err, "CODERAG_TEST_GEMINI_KEY")
}
