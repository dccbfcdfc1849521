package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/fridgechef/internal/config"
	"github.com/lehigh-university-libraries/fridgechef/internal/generation"
	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/lehigh-university-libraries/fridgechef/internal/session"
	"github.com/lehigh-university-libraries/fridgechef/internal/storage"
)

// newController wires config, provider and store into a session controller.
// A configuration error doesn't fail startup; it disables generation instead.
func newController(ephemeral bool) (*session.Controller, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var generator session.Generator
	cfgErr := cfg.Validate()
	if cfgErr == nil {
		client, err := generation.NewClientFromConfig(cfg)
		if err != nil {
			cfgErr = &config.ConfigurationError{Message: err.Error()}
		} else {
			generator = client
		}
	}

	var opts []session.Option
	if cfgErr != nil {
		slog.Error("Configuration error, recipe generation is disabled", "err", cfgErr)
		opts = append(opts, session.WithConfigError(cfgErr))
	}

	var store storage.Store
	if ephemeral {
		store = storage.NewMemoryStore()
	} else {
		fileStore, err := storage.NewFileStore(cfg.HistoryDir())
		if err != nil {
			return nil, err
		}
		slog.Debug("Using recipe history file", "path", fileStore.Path())
		store = fileStore
	}

	slog.Debug("Controller ready", "provider", cfg.Provider, "model", cfg.Model())
	return session.New(generator, store, opts...), nil
}

// reportFailure prints a generation failure the way the UI would show it
func reportFailure(w io.Writer, err error) error {
	var noResults *session.NoResultsError
	var requestErr *session.RequestError
	if errors.As(err, &noResults) || errors.As(err, &requestErr) {
		fmt.Fprintf(w, "\n%s\n", err.Error())
	}
	return err
}

func printRecipes(w io.Writer, recipes []models.Recipe) {
	for i, r := range recipes {
		fmt.Fprintln(w, "\n========================================")
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Name)
		fmt.Fprintln(w, "========================================")
		fmt.Fprintln(w, "Ingredients:")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(w, "  - %s\n", ing)
		}
		fmt.Fprintln(w, "Instructions:")
		for j, step := range r.Instructions {
			fmt.Fprintf(w, "  %d. %s\n", j+1, step)
		}
	}
}

func printHistory(w io.Writer, sets []models.RecipeSet) {
	if len(sets) == 0 {
		fmt.Fprintln(w, "No saved recipes yet.")
		return
	}
	for _, s := range sets {
		created := time.UnixMilli(s.CreatedAt).Local().Format("2006-01-02 15:04")
		fmt.Fprintf(w, "%s  %s  %d recipe(s): %s\n", s.ID, created, len(s.Recipes), strings.Join(s.RecipeNames(), ", "))
	}
}
