package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Suggest recipes for a photo of your fridge",
		Long: `Sends the photo to the configured model, prints the suggested recipes and
saves them as a new session in the recipe history.`,
		Example: `  fridgechef analyze fridge.jpg

  # Use a local Ollama model instead of Gemini
  FRIDGECHEF_PROVIDER=ollama OLLAMA_MODEL=llava fridgechef analyze fridge.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageData, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			controller, err := newController(false)
			if err != nil {
				return err
			}

			if err := controller.LoadImage(imageData); err != nil {
				return err
			}
			if err := controller.Analyze(cmd.Context()); err != nil {
				return reportFailure(cmd.ErrOrStderr(), err)
			}

			view := controller.View()
			out := cmd.OutOrStdout()
			printRecipes(out, view.Recipes)
			fmt.Fprintf(out, "\nSaved as session %s\n", view.ActiveID)
			fmt.Fprintf(out, "Ask for more with:\n  fridgechef suggest --session %s\n", view.ActiveID)
			return nil
		},
	}

	return cmd
}
