package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fridgechef",
		Short: "Recipe suggestions from a photo of your fridge",
		Long: `Fridge Chef looks at a photo of the inside of a fridge and suggests simple
recipes using a vision-capable LLM (Gemini, OpenAI or Ollama).

Recent recipe sessions are saved locally so they can be revisited, extended
with more suggestions, or exported.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}
