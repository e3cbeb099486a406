package api

import (
	"log/slog"
	"net/http"

	"github.com/adamscao/certregistry/internal/api/handlers"
	"github.com/adamscao/certregistry/internal/api/middleware"
	"github.com/adamscao/certregistry/internal/config"
	"github.com/adamscao/certregistry/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	config *config.Config
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, svc registry.Service, logger *slog.Logger) *Server {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Create handlers
	certHandler := handlers.NewCertHandler(svc, logger)

	// API v1 routes
	v1 := router.Group("/v1")
	{
		certs := v1.Group("/certs")
		{
			certs.POST("", certHandler.IssueCertificate)
			certs.GET("", certHandler.ListCertificates)
			certs.GET("/:id", certHandler.GetCertificate)
			certs.GET("/:id/verify", certHandler.VerifyCertificate)
			certs.POST("/:id/revoke", certHandler.RevokeCertificate)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	if cfg.Metrics.Enabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	return &Server{
		router: router,
		config: cfg,
	}
}

// Handler returns the router wrapped in OpenTelemetry HTTP instrumentation.
// Incoming trace context is extracted with the global propagator, so
// registry spans join the caller's trace.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http_server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// HTTPServer returns an http.Server bound to the configured listen address
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:    s.config.Server.ListenAddr,
		Handler: s.Handler(),
	}
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
