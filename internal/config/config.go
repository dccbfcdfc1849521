package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	Provider    string  `env:"FRIDGECHEF_PROVIDER" envDefault:"gemini"`
	Temperature float64 `env:"FRIDGECHEF_TEMPERATURE" envDefault:"0.4"`
	DataDir     string  `env:"FRIDGECHEF_DATA_DIR"`

	// Gemini
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	APIKey       string `env:"API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	// OpenAI (or any compatible endpoint)
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`

	// Ollama
	OllamaURL   string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaModel string `env:"OLLAMA_MODEL" envDefault:"mistral-small3.2:24b"`
}

// ConfigurationError means the generation features can't be used at all
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Load parses the process environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	// env only applies envDefault when a variable is unset, not when it is blank
	if cfg.Provider == "" {
		cfg.Provider = ProviderGemini
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.5-flash"
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o"
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = "mistral-small3.2:24b"
	}
	return cfg, nil
}

// GeminiKey prefers GEMINI_API_KEY and falls back to API_KEY
func (c *Config) GeminiKey() string {
	if c.GeminiAPIKey != "" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// Model returns the model configured for the selected provider
func (c *Config) Model() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderOllama:
		return c.OllamaModel
	default:
		return c.GeminiModel
	}
}

// Validate reports a missing credential for the selected provider
func (c *Config) Validate() *ConfigurationError {
	switch c.Provider {
	case ProviderGemini:
		if c.GeminiKey() == "" {
			return &ConfigurationError{Message: "API Key is not configured. Please set the GEMINI_API_KEY (or API_KEY) environment variable."}
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigurationError{Message: "API Key is not configured. Please set the OPENAI_API_KEY environment variable."}
		}
	case ProviderOllama:
		if c.OllamaURL == "" {
			return &ConfigurationError{Message: "Ollama is not configured. Please set the OLLAMA_URL environment variable."}
		}
	default:
		return &ConfigurationError{Message: fmt.Sprintf("unsupported provider: %s", c.Provider)}
	}
	return nil
}

// HistoryDir resolves where the saved recipe record lives
func (c *Config) HistoryDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "fridgechef")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", "fridgechef")
}
