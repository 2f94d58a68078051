package app

import (
	"fmt"

	otelmetric "go.opentelemetry.io/otel/metric"

	catalogHTTP "github.com/allisson/possync/internal/catalog/http"
	"github.com/allisson/possync/internal/http"
	outboxHTTP "github.com/allisson/possync/internal/outbox/http"
	posHTTP "github.com/allisson/possync/internal/pos/http"
)

// SyncHandler builds the sync engine HTTP handler.
func (c *Container) SyncHandler() (*outboxHTTP.SyncHandler, error) {
	dispatcher, err := c.Dispatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to get dispatcher for sync handler: %w", err)
	}
	return outboxHTTP.NewSyncHandler(dispatcher, c.Monitor(), c.config.WorkspaceID, c.Logger()), nil
}

// SaleHandler builds the sale HTTP handler.
func (c *Container) SaleHandler() (*posHTTP.SaleHandler, error) {
	saleUseCase, err := c.SaleUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get sale use case for sale handler: %w", err)
	}
	return posHTTP.NewSaleHandler(saleUseCase, c.Logger()), nil
}

// ShiftHandler builds the shift HTTP handler.
func (c *Container) ShiftHandler() (*posHTTP.ShiftHandler, error) {
	shiftUseCase, err := c.ShiftUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get shift use case for shift handler: %w", err)
	}
	return posHTTP.NewShiftHandler(shiftUseCase, c.Logger()), nil
}

// CatalogHandler builds the catalog HTTP handler.
func (c *Container) CatalogHandler() (*catalogHTTP.CatalogHandler, error) {
	catalogUseCase, err := c.CatalogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog use case for catalog handler: %w", err)
	}
	return catalogHTTP.NewCatalogHandler(catalogUseCase, c.Logger()), nil
}

// HTTPServer returns the façade HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// initHTTPServer assembles the façade server with all its handlers.
func (c *Container) initHTTPServer() (*http.Server, error) {
	syncHandler, err := c.SyncHandler()
	if err != nil {
		return nil, err
	}
	saleHandler, err := c.SaleHandler()
	if err != nil {
		return nil, err
	}
	shiftHandler, err := c.ShiftHandler()
	if err != nil {
		return nil, err
	}
	catalogHandler, err := c.CatalogHandler()
	if err != nil {
		return nil, err
	}

	var meterProvider otelmetric.MeterProvider
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider != nil {
		meterProvider = provider.MeterProvider()
	}

	routerConfig := http.RouterConfig{
		SyncHandler:      syncHandler,
		SaleHandler:      saleHandler,
		ShiftHandler:     shiftHandler,
		CatalogHandler:   catalogHandler,
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
		TriggerRateLimit: http.RateLimitConfig{
			Enabled: c.config.RateLimitTriggerEnabled,
			PerSec:  c.config.RateLimitTriggerPerSec,
			Burst:   c.config.RateLimitTriggerBurst,
		},
		MeterProvider:    meterProvider,
		MetricsNamespace: c.config.MetricsNamespace,
	}

	return http.NewServer(c.config.ServerHost, c.config.ServerPort, routerConfig, c.Logger()), nil
}
