package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lehigh-university-libraries/fridgechef/internal/export"
	"github.com/lehigh-university-libraries/fridgechef/internal/models"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage saved recipe sessions",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())
	cmd.AddCommand(newHistoryExportCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController(false)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), controller.History())
			return nil
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController(false)
			if err != nil {
				return err
			}
			controller.ClearHistory()
			fmt.Fprintln(cmd.OutOrStdout(), "Recipe history cleared.")
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	var format string
	var output string
	var includeImages bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved sessions as YAML, JSON or Parquet",
		Example: `  # Print history as YAML
  fridgechef history export

  # One row per recipe, for analysis
  fridgechef history export --format parquet --output recipes.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := export.ValidateFormat(format); err != nil {
				return err
			}
			toFile := output != "" && output != "-"
			if !toFile && format == export.FormatParquet {
				return fmt.Errorf("--output is required for parquet exports")
			}

			controller, err := newController(false)
			if err != nil {
				return err
			}
			sets := controller.History()

			if !toFile {
				return export.WriteHistory(cmd.OutOrStdout(), sets, format, export.Options{IncludeImages: includeImages})
			}

			if err := writeHistoryFile(output, sets, format, includeImages); err != nil {
				return err
			}
			absPath, _ := filepath.Abs(output)
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d session(s) to: %s\n", len(sets), absPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", export.FormatYAML, "Export format (yaml, json, parquet)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to stdout)")
	cmd.Flags().BoolVar(&includeImages, "images", false, "Include the photo data URIs (yaml/json only)")

	return cmd
}

func writeHistoryFile(path string, sets []models.RecipeSet, format string, includeImages bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := export.WriteHistory(f, sets, format, export.Options{IncludeImages: includeImages}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
