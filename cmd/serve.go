package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/bookshelf/internal/config"
	"github.com/lehigh-university-libraries/bookshelf/internal/handlers"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bookshelf HTTP API",
		Long: `Starts the bookshelf API.

Photos are stored on the configured media backend (cosmic, s3 or memory) and
analyzed with the configured AI provider (cosmic, gemini, openai or ollama).`,
		Example: `  # Start with settings from .env / config.yaml
  bookshelf serve

  # Local development without Cosmic
  STORAGE_BACKEND=memory AI_PROVIDER=ollama bookshelf serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			a, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			routerCfg := handlers.RouterConfig{
				CORSOrigins:       cfg.Server.CORSOrigins,
				RateLimitRequests: cfg.Server.RateLimitRequests,
				RateLimitWindow:   cfg.Server.RateLimitWindow,
			}
			if a.memory != nil {
				routerCfg.Media = a.memory
			}

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			server := &http.Server{
				Addr:              addr,
				Handler:           handlers.NewRouter(handlers.New(a.service), routerCfg),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Bookshelf API available", "addr", addr, "url", cfg.Server.BaseURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
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

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")

	return cmd
}
