package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

const (
	FormatYAML    = "yaml"
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

// Document is the YAML/JSON shape of an exported history
type Document struct {
	ExportedAt string       `yaml:"exported_at" json:"exported_at"`
	Sessions   []SessionDoc `yaml:"sessions" json:"sessions"`
}

// SessionDoc is one exported recipe session. The image is only kept when asked for.
type SessionDoc struct {
	ID        string          `yaml:"id" json:"id"`
	CreatedAt string          `yaml:"created_at" json:"created_at"`
	Image     string          `yaml:"image,omitempty" json:"image,omitempty"`
	Recipes   []models.Recipe `yaml:"recipes" json:"recipes"`
}

// RecipeRow is one parquet row: a single recipe flattened with its session
type RecipeRow struct {
	SessionID    string   `parquet:"session_id"`
	CreatedAt    int64    `parquet:"created_at"`
	Position     int32    `parquet:"position"`
	Name         string   `parquet:"name"`
	Ingredients  []string `parquet:"ingredients,list"`
	Instructions []string `parquet:"instructions,list"`
}

type Options struct {
	IncludeImages bool
	Now           func() time.Time
}

// ValidateFormat reports whether WriteHistory can produce the format
func ValidateFormat(format string) error {
	switch format {
	case FormatYAML, FormatJSON, FormatParquet:
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s (supported: yaml, json, parquet)", format)
	}
}

// WriteHistory writes every session in the given format
func WriteHistory(w io.Writer, sets []models.RecipeSet, format string, opts Options) error {
	switch format {
	case FormatYAML, FormatJSON:
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		doc := Document{
			ExportedAt: now().UTC().Format(time.RFC3339),
			Sessions:   make([]SessionDoc, 0, len(sets)),
		}
		for _, set := range sets {
			doc.Sessions = append(doc.Sessions, toSessionDoc(set, opts.IncludeImages))
		}
		return encode(w, doc, format)
	case FormatParquet:
		return writeParquet(w, sets)
	default:
		return ValidateFormat(format)
	}
}

// WriteSession writes a single session as YAML or JSON, image included
func WriteSession(w io.Writer, set models.RecipeSet, format string) error {
	switch format {
	case FormatYAML, FormatJSON:
		return encode(w, toSessionDoc(set, true), format)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: yaml, json)", format)
	}
}

// ContentType returns the MIME type for an export format
func ContentType(format string) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/yaml"
	}
}

func toSessionDoc(set models.RecipeSet, includeImage bool) SessionDoc {
	doc := SessionDoc{
		ID:        set.ID,
		CreatedAt: time.UnixMilli(set.CreatedAt).UTC().Format(time.RFC3339),
		Recipes:   set.Recipes,
	}
	if doc.Recipes == nil {
		doc.Recipes = []models.Recipe{}
	}
	if includeImage {
		doc.Image = set.Image
	}
	return doc
}

func encode(w io.Writer, v any, format string) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

func writeParquet(w io.Writer, sets []models.RecipeSet) error {
	rows := make([]RecipeRow, 0, len(sets))
	for _, set := range sets {
		for i, r := range set.Recipes {
			rows = append(rows, RecipeRow{
				SessionID:    set.ID,
				CreatedAt:    set.CreatedAt,
				Position:     int32(i),
				Name:         r.Name,
				Ingredients:  r.Ingredients,
				Instructions: r.Instructions,
			})
		}
	}

	writer := parquet.NewGenericWriter[RecipeRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
