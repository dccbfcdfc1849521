package providers

import (
	"context"
)

// Config represents the configuration for a single multimodal request
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Image       []byte
	MIMEType    string
	Schema      *Schema
}

// Provider defines the interface for a vision-capable LLM provider.
// Generate returns the raw text of the model's reply.
type Provider interface {
	Generate(ctx context.Context, config Config) (string, error)
}
