package models

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Recipe is a single suggestion returned by the generation service
type Recipe struct {
	Name         string   `json:"name" yaml:"name"`
	Ingredients  []string `json:"ingredients" yaml:"ingredients"`
	Instructions []string `json:"instructions" yaml:"instructions"`
}

// RecipeSet represents one upload-to-recipes session
type RecipeSet struct {
	ID        string   `json:"id"`
	Image     string   `json:"image"` // data URI of the uploaded photo
	Recipes   []Recipe `json:"recipes"`
	CreatedAt int64    `json:"createdAt"` // unix milliseconds
}

// RecipeResult is the structured reply of the generation service.
// A populated Error wins over any recipes sent alongside it.
type RecipeResult struct {
	Recipes []Recipe `json:"recipes"`
	Error   string   `json:"error,omitempty"`
}

func (r *RecipeResult) HasError() bool {
	return strings.TrimSpace(r.Error) != ""
}

// RecipeNames returns the names of every recipe in the set, in order
func (s *RecipeSet) RecipeNames() []string {
	names := make([]string, 0, len(s.Recipes))
	for _, r := range s.Recipes {
		names = append(names, r.Name)
	}
	return names
}

// Clone returns a deep copy so callers can't mutate shared slices
func (s RecipeSet) Clone() RecipeSet {
	out := s
	out.Recipes = CloneRecipes(s.Recipes)
	return out
}

func CloneRecipes(recipes []Recipe) []Recipe {
	if recipes == nil {
		return nil
	}
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = Recipe{
			Name:         r.Name,
			Ingredients:  append([]string(nil), r.Ingredients...),
			Instructions: append([]string(nil), r.Instructions...),
		}
	}
	return out
}

// EncodeDataURI builds a base64 data URI for the given payload
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a base64 data URI into its MIME type and raw bytes
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return mimeType, data, nil
}
