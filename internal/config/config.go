package config

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/adamscao/certregistry/internal/registry"
)

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	IDs     IDsConfig     `yaml:"ids"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	ListenAddr      string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	ShutdownTimeout string `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// StoreConfig selects where certificates are kept
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE"`
	Path   string `yaml:"path" env:"DB_PATH"`
}

// IDsConfig selects the certificate id generator
type IDsConfig struct {
	Generator string `yaml:"generator" env:"ID_GENERATOR"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE"`
}

// TracingConfig contains OpenTelemetry export configuration.
// Tracing is disabled when Endpoint is empty.
type TracingConfig struct {
	Endpoint string  `yaml:"endpoint" env:"TRACING_ENDPOINT"`
	Insecure bool    `yaml:"insecure" env:"TRACING_INSECURE"`
	Ratio    float64 `yaml:"ratio" env:"TRACING_RATIO"`
}

// Default returns a configuration using the in-memory store
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: "10s",
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		IDs: IDsConfig{
			Generator: registry.GeneratorSequence,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "certregistry",
		},
		Tracing: TracingConfig{
			Ratio: 1.0,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if _, err := ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("server.shutdown_timeout is invalid: %w", err)
	}

	// Store validation
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("store.driver must be '%s' or '%s'", DriverMemory, DriverSQLite)
	}

	// ID generator validation
	if c.IDs.Generator != registry.GeneratorSequence && c.IDs.Generator != registry.GeneratorULID {
		return fmt.Errorf("ids.generator must be '%s' or '%s'", registry.GeneratorSequence, registry.GeneratorULID)
	}

	// Logging validation
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("logging.format must be 'json' or 'text'")
	}

	// Metrics validation
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when metrics are enabled")
	}

	// Tracing validation
	if c.Tracing.Ratio < 0 || c.Tracing.Ratio > 1 {
		return fmt.Errorf("tracing.ratio must be between 0 and 1")
	}

	return nil
}

// GetShutdownTimeout returns the shutdown timeout as time.Duration
func (c *Config) GetShutdownTimeout() time.Duration {
	d, _ := ParseDuration(c.Server.ShutdownTimeout)
	return d
}

// maxDays is the largest day count representable as a time.Duration
const maxDays = math.MaxInt64 / int64(24*time.Hour)

// ParseDuration parses a non-negative duration with support for days (e.g., "90d")
func ParseDuration(s string) (time.Duration, error) {
	// Handle "d" suffix for days
	if len(s) > 1 && s[len(s)-1] == 'd' {
		days, err := strconv.ParseInt(s[:len(s)-1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		if days > maxDays {
			return 0, fmt.Errorf("duration %q is too large", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
