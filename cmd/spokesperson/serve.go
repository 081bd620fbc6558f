package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tyler-Pritchard/Spokesperson/internal/cli"
	httpadapter "github.com/Tyler-Pritchard/Spokesperson/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP, SSE and WebSocket server",
	Long: `Serves the conversation API over HTTP (JSON routes), Server-Sent Events (/events)
and WebSocket (/ws). Prometheus metrics are exposed on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := cli.Build(ctx, cfg, logger, cli.BuildOptions{WithMetrics: true})
		if err != nil {
			return err
		}
		defer app.Close()

		if app.Memory != nil && cfg.SessionTTL > 0 {
			janitor := cli.NewJanitor(app.Memory, cfg.SessionTTL, logger)
			if err := janitor.Start(cfg.JanitorSpec); err != nil {
				return fmt.Errorf("schedule janitor %q: %w", cfg.JanitorSpec, err)
			}
			defer janitor.Stop()
		}

		handler := httpadapter.NewHandler(app.Service,
			httpadapter.WithLogger(logger),
			httpadapter.WithMetricsHandler(app.Metrics.Handler()),
			httpadapter.WithMaxInputSize(cfg.MaxInputSize),
		)

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting spokesperson server", "address", srv.Addr, "state", cfg.StateBackend, "catalog", cfg.CatalogPath)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("killing server: %w", err)
				}
			}
			logger.Info("spokesperson server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 5000, "Port to listen on (overrides PORT)")
}
