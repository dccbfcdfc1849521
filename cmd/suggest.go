package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSuggestCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest more recipes for a saved session",
		Long: `Continues a saved session, asking the model for recipes different from the
ones already suggested. Defaults to the most recent session.`,
		Example: `  fridgechef suggest
  fridgechef suggest --session 0190f6c4-8a2b-7c3d-9e4f-123456789abc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController(false)
			if err != nil {
				return err
			}

			if sessionID == "" {
				history := controller.History()
				if len(history) == 0 {
					return fmt.Errorf("no saved sessions; run 'fridgechef analyze <image>' first")
				}
				sessionID = history[0].ID
			}

			if err := controller.SelectHistoryItem(sessionID); err != nil {
				return fmt.Errorf("%w: %s", err, sessionID)
			}
			before := len(controller.View().Recipes)

			if err := controller.SuggestMore(cmd.Context()); err != nil {
				return reportFailure(cmd.ErrOrStderr(), err)
			}

			view := controller.View()
			printRecipes(cmd.OutOrStdout(), view.Recipes[before:])
			fmt.Fprintf(cmd.OutOrStdout(), "\nSession %s now has %d recipes\n", view.ActiveID, len(view.Recipes))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to continue (defaults to the newest)")

	return cmd
}
