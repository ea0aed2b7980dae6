package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Embedding.Model != "text-embedding-ada-002" {
		t.Errorf("expected embedding model text-embedding-ada-002, got %s", cfg.Embedding.Model)
	}
	if cfg.Completion.Model != "gpt-3.5-turbo" {
		t.Errorf("expected completion model gpt-3.5-turbo, got %s", cfg.Completion.Model)
	}
	if cfg.Completion.Temperature != 0 {
		t.Errorf("expected Temperature=0, got %f", cfg.Completion.Temperature)
	}
	if cfg.Retrieve.TopN != 100 {
		t.Errorf("expected TopN=100, got %d", cfg.Retrieve.TopN)
	}
	if cfg.Prompt.TokenBudget != 3596 {
		t.Errorf("expected TokenBudget=3596, got %d", cfg.Prompt.TokenBudget)
	}
	if cfg.Ingest.Pattern != "*.py" {
		t.Errorf("expected Pattern=*.py, got %s", cfg.Ingest.Pattern)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "coderag.yaml")

	content := `
embedding:
  provider: gemini
  model: text-embedding-004
  api_key_env: GEMINI_API_KEY
  timeout: 5s
completion:
  provider: anthropic
  model: claude-haiku-4-5
ingest:
  pattern: "*.go"
  annotate_line_numbers: false
retrieve:
  top_n: 10
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Embedding.Provider != "gemini" {
		t.Errorf("expected Provider=gemini, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Timeout != 5*time.Second {
		t.Errorf("expected Timeout=5s, got %v", cfg.Embedding.Timeout)
	}
	if cfg.Completion.Provider != "anthropic" {
		t.Errorf("expected Provider=anthropic, got %s", cfg.Completion.Provider)
	}
	if cfg.Ingest.Pattern != "*.go" {
		t.Errorf("expected Pattern=*.go, got %s", cfg.Ingest.Pattern)
	}
	if cfg.Ingest.AnnotateLineNumbers != false {
		t.Errorf("expected AnnotateLineNumbers=false, got %v", cfg.Ingest.AnnotateLineNumbers)
	}
	if !cfg.Ingest.TrackProvenance {
		t.Error("expected TrackProvenance to keep its default")
	}
	if cfg.Retrieve.TopN != 10 {
		t.Errorf("expected TopN=10, got %d", cfg.Retrieve.TopN)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "coderag.yaml")

	cases := []string{
		"retrieve:\n  top_n: 0\n",
		"prompt:\n  token_budget: -1\n",
		"embedding:\n  provider: voyage\n",
		"completion:\n  provider: cohere\n",
		"completion:\n  temperature: 3\n",
	}
	for _, content := range cases {
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(configPath); err == nil {
			t.Errorf("expected validation error for %q", content)
		}
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "coderag.yaml")

	content := `
prompt:
  token_budget: 8000
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Prompt.TokenBudget != 8000 {
		t.Errorf("expected TokenBudget=8000, got %d", cfg.Prompt.TokenBudget)
	}
}

func TestLoadFromDir_HiddenConfig(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".coderag"), 0755); err != nil {
		t.Fatal(err)
	}
	content := "store:\n  path: index.db\n"
	if err := os.WriteFile(filepath.Join(tmpDir, ".coderag", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != "index.db" {
		t.Errorf("expected Path=index.db, got %s", cfg.Store.Path)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coderag.yaml")
	cfg := DefaultConfig()
	cfg.Completion.Model = "gpt-4o-mini"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Completion.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %s", loaded.Completion.Model)
	}
	if loaded.Embedding.Timeout != cfg.Embedding.Timeout {
		t.Errorf("expected timeout %v, got %v", cfg.Embedding.Timeout, loaded.Embedding.Timeout)
	}
}

func TestStorePath(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.StorePath("/home/user/project")
	expected := filepath.Join("/home/user/project", ".coderag", "embeddings.csv")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Path = "/var/lib/coderag/store.db"
	if got := cfg.StorePath("/home/user/project"); got != "/var/lib/coderag/store.db" {
		t.Errorf("expected absolute path to be kept, got %s", got)
	}
}
