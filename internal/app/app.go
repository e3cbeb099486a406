// Package app wires configuration into a ready-to-serve registry.
package app

import (
	"fmt"
	"log/slog"

	"github.com/adamscao/certregistry/internal/config"
	"github.com/adamscao/certregistry/internal/db"
	"github.com/adamscao/certregistry/internal/db/repository"
	"github.com/adamscao/certregistry/internal/metrics"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/adamscao/certregistry/internal/registry/middleware"
	"go.opentelemetry.io/otel"
)

// TracerName names the tracer used for registry spans
const TracerName = "certregistry"

// App holds the registry and the resources backing it
type App struct {
	Service  registry.Service
	Registry *registry.Registry
	Audit    *repository.AuditRepository
	Certs    *repository.CertRepository
	database *db.DB
}

// New builds the store, id provider and registry described by cfg.
// Service wraps the registry with tracing and logging middleware, plus
// metrics when enabled. Spans go to the global tracer provider.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ids, err := registry.NewIDProvider(cfg.IDs.Generator)
	if err != nil {
		return nil, err
	}

	a := &App{}
	opts := []registry.Option{registry.WithLogger(logger)}

	var store registry.Store
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		logger.Info("Opening database", slog.String("path", cfg.Store.Path))
		a.database, err = db.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		a.Certs = repository.NewCertRepository(a.database.DB)
		a.Audit = repository.NewAuditRepository(a.database.DB)
		store = a.Certs
		opts = append(opts, registry.WithAuditSink(a.Audit))
	default:
		logger.Warn("Using in-memory store, certificates will not survive a restart")
		store = registry.NewMemoryStore()
	}

	a.Registry = registry.New(store, ids, opts...)

	a.Service = middleware.TracingMiddleware(a.Registry, otel.Tracer(TracerName))
	a.Service = middleware.LoggingMiddleware(a.Service, logger)
	if cfg.Metrics.Enabled {
		counter, latency := metrics.MakeMetrics(cfg.Metrics.Namespace, "registry")
		a.Service = middleware.MetricsMiddleware(a.Service, counter, latency)
	}

	return a, nil
}

// Close releases the database, if any
func (a *App) Close() error {
	if a.database == nil {
		return nil
	}
	return a.database.Close()
}
