package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/adamscao/certregistry/internal/api"
	"github.com/adamscao/certregistry/internal/app"
	"github.com/adamscao/certregistry/internal/config"
	"github.com/adamscao/certregistry/internal/logger"
	"github.com/adamscao/certregistry/internal/tracing"
	"golang.org/x/sync/errgroup"
)

const svcName = "certregistry"

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (defaults apply when empty)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Certificate Registry\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	log.Info("Starting Certificate Registry", slog.String("version", Version), slog.String("commit", Commit))

	if err := run(cfg, log); err != nil {
		log.Error("Certificate Registry terminated", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("Server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Endpoint != "" {
		tp, err := tracing.NewProvider(ctx, svcName, cfg.Tracing.Endpoint, cfg.Tracing.Insecure, cfg.Tracing.Ratio)
		if err != nil {
			return fmt.Errorf("failed to init tracing provider: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down tracer provider", slog.Any("error", err))
			}
		}()
		log.Info("Exporting traces", slog.String("endpoint", cfg.Tracing.Endpoint))
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	server := api.NewServer(cfg, a.Service, log).HTTPServer()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Server.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	// Setup graceful shutdown
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
