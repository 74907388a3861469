// Package main is the entry point for the AegisVault API server.
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

	"github.com/spf13/pflag"

	"github.com/abdul-hamid-achik/aegisvault/internal/app"
	"github.com/abdul-hamid-achik/aegisvault/internal/config"
	"github.com/abdul-hamid-achik/aegisvault/internal/handlers"
	"github.com/abdul-hamid-achik/aegisvault/internal/logging"
	"github.com/abdul-hamid-achik/aegisvault/internal/metrics"
	"github.com/abdul-hamid-achik/aegisvault/internal/middleware"
	"github.com/abdul-hamid-achik/aegisvault/internal/services"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgFile := pflag.StringP("config", "c", "", "config file (default <dir>/config.yaml)")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.Setup(os.Stdout, cfg.Log.Level, "json")
	logger.Info("starting AegisVault",
		"version", version,
		"dir", cfg.Dir,
		"backend", cfg.Storage.Backend,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to open vault: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("failed to close vault", "error", err)
		}
	}()

	authService := services.NewAuthService(
		a.TwoFactor,
		cfg.Session.TTL,
		cfg.Security.MaxLoginAttempts,
		cfg.Security.LockoutDuration,
	)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	router := handlers.NewRouter(&handlers.Dependencies{
		App:         a,
		Logger:      logger,
		AuthService: authService,
		RateLimiter: rateLimiter,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start background tasks
	go func() {
		ticker := time.NewTicker(cfg.Security.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := authService.CleanupExpiredSessions(); n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
				rateLimiter.Cleanup()
			}
		}
	}()

	// Start metrics collector (every 30 seconds)
	go metrics.StartCollector(ctx, a.Vault, authService, 30*time.Second)

	// Start server in goroutine
	go func() {
		logger.Info("server listening",
			"addr", cfg.ServerAddr(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
