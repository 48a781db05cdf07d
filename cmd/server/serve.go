package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"genquota-server/internal/config"
	"genquota-server/internal/handler"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	appLogger := newAppLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wiring
	container, err := config.NewContainer(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize dependencies", err)
		return err
	}
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Error("Failed to close dependencies", err)
		}
	}()

	// Handlers
	middleware := handler.NewMiddleware(
		cfg.GetAppSecret(),
		cfg.GetWebhookSecret(),
		cfg.GetMaxBodyBytes(),
		container.Metrics,
		appLogger,
	)
	router := handler.NewRouter(
		handler.NewGenerationHandler(container.GenerationService, appLogger),
		handler.NewStatusHandler(container.EntitlementService, appLogger),
		handler.NewWebhookHandler(container.WebhookService, appLogger),
		middleware,
		container.Metrics.Handler(),
	)

	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation can take up to GENERATION_TIMEOUT before the response is written.
		WriteTimeout: cfg.GetGenerationTimeout() + 15*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Error("Server failed to start", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown lets in-flight generations finish and release their locks.
	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}

	appLogger.Info("Server exited")
	return nil
}
