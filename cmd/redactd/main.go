// Redactd is a sensitive-data matching and refinement daemon.
//
// It locates sensitive-data spans in text with registered patterns,
// records human feedback about each match, and turns accumulated
// negative feedback into reviewable pattern refinements.
//
// Usage:
//
//	# Start with defaults
//	redactd
//
//	# Configure via file and environment
//	redactd -config /etc/redactd/config.yaml
//	SERVER_PORT=8080 ENGINE_SEED_TEMPLATES=true redactd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/redactd/internal/config"
	"github.com/fyrsmithlabs/redactd/internal/engine"
	"github.com/fyrsmithlabs/redactd/internal/feedback"
	httpserver "github.com/fyrsmithlabs/redactd/internal/http"
	"github.com/fyrsmithlabs/redactd/internal/logging"
	"github.com/fyrsmithlabs/redactd/internal/match"
	"github.com/fyrsmithlabs/redactd/internal/pattern"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  redactd           Start the redactd daemon\n")
			fmt.Fprintf(os.Stderr, "  redactd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("redactd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the redactd server and blocks until context cancellation.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize logger
//  3. Create in-memory registry and feedback store
//  4. Seed the built-in pattern catalog if configured
//  5. Create the engine service and HTTP server
//  6. Start the metrics listener if enabled
//  7. Graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting redactd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	registry := pattern.NewInMemoryRegistry()
	store := feedback.NewInMemoryStore()

	if cfg.Engine.SeedTemplates {
		seeded, err := seedTemplates(ctx, registry)
		if err != nil {
			return fmt.Errorf("failed to seed pattern templates: %w", err)
		}
		logger.Info("Seeded built-in pattern catalog", zap.Int("patterns", seeded))
	}

	svc, err := engine.NewService(&engine.Config{
		PrecisionFloor: cfg.Engine.PrecisionFloor,
		Matcher:        &match.Config{MaxRegexLength: cfg.Engine.MaxRegexLength},
	}, registry, store, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	srv, err := httpserver.NewServer(svc, logger, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
			Handler: mux,
		}
		go func() {
			logger.Info("starting metrics listener", zap.String("addr", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics listener shutdown failed", zap.Error(err))
		}
	}
	return nil
}

// seedTemplates materializes the built-in catalog into the registry.
func seedTemplates(ctx context.Context, registry pattern.Registry) (int, error) {
	for _, tmpl := range pattern.Templates() {
		p, err := tmpl.Materialize()
		if err != nil {
			return 0, fmt.Errorf("materialize template %s: %w", tmpl.Category, err)
		}
		if _, err := registry.Save(ctx, p); err != nil {
			return 0, fmt.Errorf("save template %s: %w", tmpl.Category, err)
		}
	}
	return len(pattern.Templates()), nil
}
