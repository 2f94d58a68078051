// Package http provides the local HTTP façade the terminal UI talks to.
// Every route answers from the local store; nothing here blocks on the
// central server except the synchronous catalog refresh.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	otelmetric "go.opentelemetry.io/otel/metric"

	catalogHTTP "github.com/allisson/possync/internal/catalog/http"
	"github.com/allisson/possync/internal/metrics"
	outboxHTTP "github.com/allisson/possync/internal/outbox/http"
	posHTTP "github.com/allisson/possync/internal/pos/http"
)

// RouterConfig carries the handlers and cross-cutting options for the façade.
type RouterConfig struct {
	SyncHandler    *outboxHTTP.SyncHandler
	SaleHandler    *posHTTP.SaleHandler
	ShiftHandler   *posHTTP.ShiftHandler
	CatalogHandler *catalogHTTP.CatalogHandler

	CORSEnabled      bool
	CORSAllowOrigins string

	TriggerRateLimit RateLimitConfig

	MeterProvider    otelmetric.MeterProvider
	MetricsNamespace string
}

// Server represents the façade HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new façade server with its routes registered.
func NewServer(host string, port int, routerConfig RouterConfig, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(routerConfig.CORSEnabled, routerConfig.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if routerConfig.MeterProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(routerConfig.MeterProvider, routerConfig.MetricsNamespace))
	}

	registerRoutes(router, routerConfig, logger)

	server := &Server{
		router: router,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	return server
}

// registerRoutes wires the handlers into the route tree.
func registerRoutes(router *gin.Engine, routerConfig RouterConfig, logger *slog.Logger) {
	router.GET("/health", HealthHandler)

	v1 := router.Group("/v1")

	if handler := routerConfig.SyncHandler; handler != nil {
		sync := v1.Group("/sync")
		sync.GET("/stats", handler.StatsHandler)
		sync.POST("/trigger", RateLimitMiddleware(routerConfig.TriggerRateLimit, logger), handler.TriggerHandler)
		sync.POST("/commands/:id/retry", handler.RetryHandler)
		sync.PUT("/auto", handler.AutoSyncHandler)
	}

	if handler := routerConfig.SaleHandler; handler != nil {
		sales := v1.Group("/pos/sales")
		sales.POST("", handler.CreateHandler)
		sales.GET("", handler.ListHandler)
		sales.GET("/:id", handler.GetHandler)
	}

	if handler := routerConfig.ShiftHandler; handler != nil {
		shifts := v1.Group("/pos/shifts")
		shifts.POST("/open", handler.OpenHandler)
		shifts.POST("/close", handler.CloseHandler)
		shifts.POST("/cash-events", handler.CashEventHandler)
		shifts.GET("/current", handler.CurrentHandler)
		shifts.GET("/:id/cash-events", handler.CashEventsHandler)
	}

	if handler := routerConfig.CatalogHandler; handler != nil {
		catalog := v1.Group("/catalog")
		catalog.POST("/refresh", handler.RefreshHandler)
		catalog.GET("/products", handler.ListHandler)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
