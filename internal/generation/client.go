package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/lehigh-university-libraries/fridgechef/internal/providers"
)

// ErrUnsupportedImage is returned for anything other than a JPEG or PNG photo
var ErrUnsupportedImage = errors.New("unsupported image type (expected JPEG or PNG)")

// ServiceError is any failure talking to the generation service or reading its reply
type ServiceError struct {
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Client turns a fridge photo into recipe suggestions. It keeps no state between calls.
type Client struct {
	provider    providers.Provider
	model       string
	temperature float64
}

func NewClient(provider providers.Provider, model string, temperature float64) *Client {
	return &Client{
		provider:    provider,
		model:       model,
		temperature: temperature,
	}
}

// Generate makes exactly one request to the provider. priorNames lists recipes already
// suggested for this photo and may be empty.
func (c *Client) Generate(ctx context.Context, image []byte, mimeType string, priorNames []string) (*models.RecipeResult, error) {
	if !SupportedImageType(mimeType) {
		return nil, ErrUnsupportedImage
	}

	slog.Debug("Requesting recipes", "model", c.model, "image_bytes", len(image), "prior", len(priorNames))

	raw, err := c.provider.Generate(ctx, providers.Config{
		Model:       c.model,
		Temperature: c.temperature,
		Prompt:      BuildPrompt(priorNames),
		Image:       image,
		MIMEType:    mimeType,
		Schema:      RecipeSchema(),
	})
	if err != nil {
		return nil, &ServiceError{Message: err.Error(), Err: err}
	}

	result, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	slog.Info("Generated recipes", "model", c.model, "recipes", len(result.Recipes), "has_error", result.HasError())
	return result, nil
}

// parseResponse decodes the model reply into a RecipeResult
func parseResponse(response string) (*models.RecipeResult, error) {
	// Trim any markdown code blocks
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if response == "" {
		return nil, &ServiceError{Message: "empty response"}
	}

	var result *models.RecipeResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		slog.Warn("Failed to parse JSON response", "error", err)
		return nil, &ServiceError{Message: "malformed response", Err: err}
	}
	if result == nil {
		return nil, &ServiceError{Message: "malformed response", Err: fmt.Errorf("response is null")}
	}
	// recipes may only be left out when the model explains why
	if result.Recipes == nil && !result.HasError() {
		return nil, &ServiceError{Message: "malformed response", Err: fmt.Errorf("response has no recipes field")}
	}

	for i, r := range result.Recipes {
		switch {
		case strings.TrimSpace(r.Name) == "":
			return nil, &ServiceError{Message: "malformed response", Err: fmt.Errorf("recipe %d has no name", i)}
		case r.Ingredients == nil:
			return nil, &ServiceError{Message: "malformed response", Err: fmt.Errorf("recipe %d has no ingredients", i)}
		case r.Instructions == nil:
			return nil, &ServiceError{Message: "malformed response", Err: fmt.Errorf("recipe %d has no instructions", i)}
		}
	}

	return result, nil
}

// SupportedImageType reports whether the generation service accepts this MIME type
func SupportedImageType(mimeType string) bool {
	return mimeType == "image/jpeg" || mimeType == "image/png"
}

// DetectImageType sniffs the MIME type of an uploaded photo
func DetectImageType(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !SupportedImageType(mimeType) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedImage, mimeType)
	}
	return mimeType, nil
}
