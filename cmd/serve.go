package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/fridgechef/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var staticDir string
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the Fridge Chef interface",
		Long: `Starts the Fridge Chef web interface on the specified port.

The web interface lets you upload a photo of your fridge, get recipe
suggestions, ask for more, browse recent sessions and save the recipes
as an image.`,
		Example: `  # Start server on default port 8888
  fridgechef serve

  # Start server on custom port without touching saved history
  fridgechef serve --port 3000 --ephemeral`,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller, err := newController(ephemeral)
			if err != nil {
				return err
			}
			handler := handlers.New(controller, staticDir)

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Fridge Chef interface available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "static", "Directory holding the web interface")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Keep history in memory only")

	return cmd
}
