package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the project directory.
const DefaultConfigFile = "coderag.yaml"

// Config holds all configuration for coderag.
type Config struct {
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Store      StoreConfig      `yaml:"store"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// EmbeddingConfig selects the embedding service.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"`    // "openai", "deepseek", "jina", "ollama", "gemini", "mock"
	Model     string        `yaml:"model"`       // e.g., "text-embedding-ada-002"
	APIKeyEnv string        `yaml:"api_key_env"` // Environment variable for API key
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   uint64        `yaml:"retries"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	Dimension int           `yaml:"dimension"`  // mock provider only
}

// CompletionConfig selects the chat completion service.
type CompletionConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "anthropic", "gemini", "mock"
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	BaseURL     string        `yaml:"base_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     uint64        `yaml:"retries"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

// IngestConfig controls which files are embedded and how.
type IngestConfig struct {
	Dir                 string   `yaml:"dir"`
	Pattern             string   `yaml:"pattern"`
	Excludes            []string `yaml:"excludes"`
	AnnotateLineNumbers bool     `yaml:"annotate_line_numbers"`
	TrackProvenance     bool     `yaml:"track_provenance"`
}

// StoreConfig locates the persisted record table.
type StoreConfig struct {
	Path string `yaml:"path"` // .csv, or .db/.bolt for bbolt
}

// RetrieveConfig holds ranking configuration.
type RetrieveConfig struct {
	TopN int `yaml:"top_n"`
}

// PromptConfig holds context budgeting configuration.
type PromptConfig struct {
	TokenBudget int    `yaml:"token_budget"`
	Tokenizer   string `yaml:"tokenizer"` // "tiktoken" or "approx"
	PrintPrompt bool   `yaml:"print_prompt"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Env   string `yaml:"env"` // "prod" for JSON output
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-ada-002",
			APIKeyEnv: "OPENAI_API_KEY",
			Timeout:   30 * time.Second,
			Retries:   3,
			CacheSize: 256,
			Dimension: 64,
		},
		Completion: CompletionConfig{
			Provider:    "openai",
			Model:       "gpt-3.5-turbo",
			APIKeyEnv:   "OPENAI_API_KEY",
			Timeout:     120 * time.Second,
			Retries:     2,
			Temperature: 0,
		},
		Ingest: IngestConfig{
			Dir:                 ".",
			Pattern:             "*.py",
			AnnotateLineNumbers: true,
			TrackProvenance:     true,
		},
		Store: StoreConfig{
			Path: filepath.Join(".coderag", "embeddings.csv"),
		},
		Retrieve: RetrieveConfig{
			TopN: 100,
		},
		Prompt: PromptConfig{
			TokenBudget: 4096 - 500,
			Tokenizer:   "tiktoken",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for coderag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// Try coderag.yaml in the directory
	path := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Try .coderag/config.yaml
	path = filepath.Join(dir, ".coderag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	// Return defaults
	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Embedding.Provider) {
	case "openai", "deepseek", "jina", "ollama", "gemini", "mock":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	switch strings.ToLower(c.Completion.Provider) {
	case "openai", "anthropic", "gemini", "mock":
	default:
		return fmt.Errorf("unsupported completion provider: %s", c.Completion.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("completion.model must be set")
	}
	if c.Retrieve.TopN <= 0 {
		return fmt.Errorf("retrieve.top_n must be positive, got %d", c.Retrieve.TopN)
	}
	if c.Prompt.TokenBudget <= 0 {
		return fmt.Errorf("prompt.token_budget must be positive, got %d", c.Prompt.TokenBudget)
	}
	if c.Embedding.CacheSize < 0 {
		return fmt.Errorf("embedding.cache_size must not be negative, got %d", c.Embedding.CacheSize)
	}
	if c.Completion.Temperature < 0 || c.Completion.Temperature > 2 {
		return fmt.Errorf("completion.temperature must be within [0, 2], got %v", c.Completion.Temperature)
	}
	return nil
}

// StorePath resolves the store path against dir unless it is absolute.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(dir, c.Store.Path)
}

// EnsureStoreDir ensures the directory holding the store exists.
func EnsureStoreDir(storePath string) error {
	return os.MkdirAll(filepath.Dir(storePath), 0755)
}
