package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/coordgrid/internal/config"
	"github.com/JonMunkholm/coordgrid/internal/core"
	"github.com/JonMunkholm/coordgrid/internal/crs"
	"github.com/JonMunkholm/coordgrid/internal/geodesy"
	"github.com/JonMunkholm/coordgrid/internal/logging"
	"github.com/JonMunkholm/coordgrid/internal/reproject"
	"github.com/JonMunkholm/coordgrid/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"catalog_path", cfg.Catalog.Path,
		"database", cfg.Database.Enabled(),
		"reproject_max_concurrent", cfg.Reproject.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Built-in list, then file, then PostGIS
	catalog, err := crs.Open(context.Background(), cfg.Catalog, cfg.Database)
	if err != nil {
		slog.Error("failed to load crs catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("crs catalog ready", "entries", catalog.Len())

	transformer := geodesy.New(catalog)
	defer transformer.Close()

	service := core.NewService(catalog, reproject.NewEngine(transformer), core.Config{
		MaxWindows:         cfg.Window.Max,
		MaxRows:            cfg.Window.MaxRows,
		MaxCols:            cfg.Window.MaxCols,
		SuggestLimit:       cfg.Catalog.SuggestLimit,
		MaxReprojections:   cfg.Reproject.MaxConcurrent,
		ReprojectQueueWait: cfg.Reproject.MaxWaitTime,
		ReprojectTimeout:   cfg.Reproject.Timeout,
	})

	// Create server with config
	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Close windows nobody uses any more
	go service.StartWindowReaper(jobCtx, core.ReaperConfig{
		IdleTimeout:   cfg.Window.IdleTimeout,
		CheckInterval: cfg.Window.ReapInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running reprojections (with timeout)
		status := service.Limiter().Status()
		if status.Active > 0 {
			slog.Info("waiting for reprojections to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("reprojections did not complete in time", "error", err)
			} else {
				slog.Info("all reprojections completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	// Start server (uses addr from config internally)
	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
