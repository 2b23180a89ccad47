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
)

// run starts the schema watcher, the task runner, and the HTTP server, and
// blocks until shutdown completes.
func (app *application) run(ctx context.Context) error {
	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	if app.config.Schemas.Watch {
		if err := app.registry.Watch(serverCtx); err != nil {
			return fmt.Errorf("failed to start schema watcher: %w", err)
		}
	}

	app.runner.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", "error", err)
			cancelServer()
		}
	}()

	select {
	case <-shutdownCh:
		app.logger.Info("shutdown signal received")
	case <-serverCtx.Done():
		app.logger.Info("server context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop background workers before releasing shared resources.
	app.runner.Stop()
	app.cleanup()

	app.logger.Info("server shutdown completed")
	return nil
}
