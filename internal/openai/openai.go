package openai

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/lehigh-university-libraries/fridgechef/internal/providers"
	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAI is a provider for OpenAI and compatible chat completion endpoints
type OpenAI struct {
	client *goopenai.Client
}

// New returns a new OpenAI provider. baseURL may be empty.
func New(apiKey, baseURL string) *OpenAI {
	config := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{client: goopenai.NewClientWithConfig(config)}
}

// Generate sends the prompt and image as a single user message and returns the reply content
func (o *OpenAI) Generate(ctx context.Context, config providers.Config) (string, error) {
	parts := []goopenai.ChatMessagePart{
		{
			Type: goopenai.ChatMessagePartTypeText,
			Text: config.Prompt,
		},
	}
	if len(config.Image) > 0 {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    models.EncodeDataURI(config.MIMEType, config.Image),
				Detail: goopenai.ImageURLDetailAuto,
			},
		})
	}

	req := goopenai.ChatCompletionRequest{
		Model: config.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:         goopenai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens:   4000,
		Temperature: float32(config.Temperature),
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
