package generation

import (
	"fmt"

	"github.com/lehigh-university-libraries/fridgechef/internal/config"
	"github.com/lehigh-university-libraries/fridgechef/internal/gemini"
	"github.com/lehigh-university-libraries/fridgechef/internal/ollama"
	"github.com/lehigh-university-libraries/fridgechef/internal/openai"
	"github.com/lehigh-university-libraries/fridgechef/internal/providers"
)

// NewProvider picks the provider named in the config
func NewProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return gemini.New(cfg.GeminiKey()), nil
	case config.ProviderOpenAI:
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL), nil
	case config.ProviderOllama:
		return ollama.New(cfg.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

// NewClientFromConfig wires the configured provider into a Client
func NewClientFromConfig(cfg *config.Config) (*Client, error) {
	provider, err := NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(provider, cfg.Model(), cfg.Temperature), nil
}
