package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jpgoodman17/SPN-Site-Search/internal/app"
	"github.com/jpgoodman17/SPN-Site-Search/internal/config"
	"github.com/jpgoodman17/SPN-Site-Search/internal/handlers"
	"github.com/jpgoodman17/SPN-Site-Search/internal/logger"
	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.NewWithOptions(logger.Options{Env: cfg.Server.Env, Level: cfg.Log.Level})
	log.Info("Starting SPN site screener API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"skip_remote": cfg.Runner.SkipRemote,
		"workers":     cfg.Runner.Workers,
	})

	a := app.New(cfg, log, observability.NewMetrics(), clockwork.NewRealClock())

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
