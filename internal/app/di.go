// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	catalogRepository "github.com/allisson/possync/internal/catalog/repository"
	catalogUsecase "github.com/allisson/possync/internal/catalog/usecase"
	"github.com/allisson/possync/internal/config"
	"github.com/allisson/possync/internal/connectivity"
	"github.com/allisson/possync/internal/database"
	"github.com/allisson/possync/internal/http"
	"github.com/allisson/possync/internal/metrics"
	outboxRepository "github.com/allisson/possync/internal/outbox/repository"
	outboxUsecase "github.com/allisson/possync/internal/outbox/usecase"
	posRepository "github.com/allisson/possync/internal/pos/repository"
	posUsecase "github.com/allisson/possync/internal/pos/usecase"
	"github.com/allisson/possync/internal/remote"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Repositories
	commandRepo outboxUsecase.CommandRepository
	saleRepo    posUsecase.SaleRepository
	shiftRepo   posUsecase.ShiftRepository
	productRepo catalogUsecase.ProductRepository

	// Remote
	tokenSource  *remote.RefreshingTokenSource
	remoteClient *remote.Client

	// Sync engine
	dispatcher *outboxUsecase.Dispatcher
	monitor    *connectivity.Monitor
	scheduler  *outboxUsecase.Scheduler

	// Use Cases
	saleUseCase    posUsecase.SaleUseCase
	shiftUseCase   posUsecase.ShiftUseCase
	catalogUseCase catalogUsecase.CatalogUseCase

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	commandRepoInit     sync.Once
	saleRepoInit        sync.Once
	shiftRepoInit       sync.Once
	productRepoInit     sync.Once
	tokenSourceInit     sync.Once
	remoteClientInit    sync.Once
	dispatcherInit      sync.Once
	monitorInit         sync.Once
	schedulerInit       sync.Once
	saleUseCaseInit     sync.Once
	shiftUseCaseInit    sync.Once
	catalogUseCaseInit  sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the local database connection, creating it on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Path:        c.config.DBPath,
			BusyTimeout: c.config.DBBusyTimeout,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to open local database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// CommandRepository returns the outbox command repository instance.
func (c *Container) CommandRepository() (outboxUsecase.CommandRepository, error) {
	c.commandRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["commandRepo"] = fmt.Errorf("failed to get database for command repository: %w", err)
			return
		}
		c.commandRepo = outboxRepository.NewSQLiteCommandRepository(db)
	})
	if storedErr, exists := c.initErrors["commandRepo"]; exists {
		return nil, storedErr
	}
	return c.commandRepo, nil
}

// SaleRepository returns the sale repository instance.
func (c *Container) SaleRepository() (posUsecase.SaleRepository, error) {
	c.saleRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["saleRepo"] = fmt.Errorf("failed to get database for sale repository: %w", err)
			return
		}
		c.saleRepo = posRepository.NewSQLiteSaleRepository(db)
	})
	if storedErr, exists := c.initErrors["saleRepo"]; exists {
		return nil, storedErr
	}
	return c.saleRepo, nil
}

// ShiftRepository returns the shift repository instance.
func (c *Container) ShiftRepository() (posUsecase.ShiftRepository, error) {
	c.shiftRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["shiftRepo"] = fmt.Errorf("failed to get database for shift repository: %w", err)
			return
		}
		c.shiftRepo = posRepository.NewSQLiteShiftRepository(db)
	})
	if storedErr, exists := c.initErrors["shiftRepo"]; exists {
		return nil, storedErr
	}
	return c.shiftRepo, nil
}

// ProductRepository returns the catalog product repository instance.
func (c *Container) ProductRepository() (catalogUsecase.ProductRepository, error) {
	c.productRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["productRepo"] = fmt.Errorf("failed to get database for product repository: %w", err)
			return
		}
		c.productRepo = catalogRepository.NewSQLiteProductRepository(db)
	})
	if storedErr, exists := c.initErrors["productRepo"]; exists {
		return nil, storedErr
	}
	return c.productRepo, nil
}

// TokenSource returns the refreshing token source for the central server.
func (c *Container) TokenSource() *remote.RefreshingTokenSource {
	c.tokenSourceInit.Do(func() {
		c.tokenSource = remote.NewRefreshingTokenSource(
			remote.Config{
				BaseURL: c.config.ServerBaseURL,
				Timeout: c.config.ServerTimeout,
			},
			c.config.ServerRefreshToken,
			c.Logger(),
		)
	})
	return c.tokenSource
}

// RemoteClient returns the central server client.
func (c *Container) RemoteClient() *remote.Client {
	c.remoteClientInit.Do(func() {
		c.remoteClient = remote.NewClient(
			remote.Config{
				BaseURL: c.config.ServerBaseURL,
				Timeout: c.config.ServerTimeout,
			},
			c.TokenSource(),
			c.Logger(),
		)
	})
	return c.remoteClient
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// Projector builds the outcome projector over the POS repositories.
func (c *Container) Projector() (outboxUsecase.OutcomeProjector, error) {
	saleRepo, err := c.SaleRepository()
	if err != nil {
		return nil, err
	}
	shiftRepo, err := c.ShiftRepository()
	if err != nil {
		return nil, err
	}
	return posUsecase.NewProjector(saleRepo, shiftRepo), nil
}

// Dispatcher returns the sync engine instance.
func (c *Container) Dispatcher() (*outboxUsecase.Dispatcher, error) {
	c.dispatcherInit.Do(func() {
		commandRepo, err := c.CommandRepository()
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}
		projector, err := c.Projector()
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["dispatcher"] = err
			return
		}

		c.dispatcher = outboxUsecase.NewDispatcher(
			outboxUsecase.Config{
				BatchSize:      c.config.SyncBatchSize,
				MaxAttempts:    c.config.SyncMaxAttempts,
				InitialBackoff: c.config.SyncInitialBackoff,
				MaxBackoff:     c.config.SyncMaxBackoff,
			},
			commandRepo,
			c.RemoteClient(),
			c.TokenSource(),
			projector,
			businessMetrics,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// Monitor returns the connectivity monitor instance.
func (c *Container) Monitor() *connectivity.Monitor {
	c.monitorInit.Do(func() {
		c.monitor = connectivity.NewMonitor(
			connectivity.Config{
				PollInterval:    c.config.ConnectivityPollInterval,
				ProbeTimeout:    c.config.ConnectivityProbeTimeout,
				AutoSyncEnabled: c.config.SyncAutoEnabled,
			},
			connectivity.HTTPProbe(c.config.ServerBaseURL, c.config.ConnectivityProbeTimeout),
			c.Logger(),
		)
	})
	return c.monitor
}

// Scheduler returns the drain scheduler instance.
func (c *Container) Scheduler() (*outboxUsecase.Scheduler, error) {
	c.schedulerInit.Do(func() {
		dispatcher, err := c.Dispatcher()
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}
		c.scheduler = outboxUsecase.NewScheduler(
			dispatcher,
			c.Monitor(),
			c.config.WorkspaceID,
			c.config.SyncInterval,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// SaleUseCase returns the sale use case instance.
func (c *Container) SaleUseCase() (posUsecase.SaleUseCase, error) {
	c.saleUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["saleUseCase"] = err
			return
		}
		saleRepo, err := c.SaleRepository()
		if err != nil {
			c.initErrors["saleUseCase"] = err
			return
		}
		commandRepo, err := c.CommandRepository()
		if err != nil {
			c.initErrors["saleUseCase"] = err
			return
		}
		c.saleUseCase = posUsecase.NewSaleService(
			c.config.WorkspaceID,
			txManager,
			saleRepo,
			commandRepo,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["saleUseCase"]; exists {
		return nil, storedErr
	}
	return c.saleUseCase, nil
}

// ShiftUseCase returns the shift use case instance.
func (c *Container) ShiftUseCase() (posUsecase.ShiftUseCase, error) {
	c.shiftUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["shiftUseCase"] = err
			return
		}
		shiftRepo, err := c.ShiftRepository()
		if err != nil {
			c.initErrors["shiftUseCase"] = err
			return
		}
		commandRepo, err := c.CommandRepository()
		if err != nil {
			c.initErrors["shiftUseCase"] = err
			return
		}
		c.shiftUseCase = posUsecase.NewShiftService(
			c.config.WorkspaceID,
			c.config.DeviceID,
			txManager,
			shiftRepo,
			commandRepo,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["shiftUseCase"]; exists {
		return nil, storedErr
	}
	return c.shiftUseCase, nil
}

// CatalogUseCase returns the catalog use case instance.
func (c *Container) CatalogUseCase() (catalogUsecase.CatalogUseCase, error) {
	c.catalogUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["catalogUseCase"] = err
			return
		}
		productRepo, err := c.ProductRepository()
		if err != nil {
			c.initErrors["catalogUseCase"] = err
			return
		}
		c.catalogUseCase = catalogUsecase.NewCatalogService(
			c.config.WorkspaceID,
			c.config.CatalogPageSize,
			txManager,
			productRepo,
			c.RemoteClient(),
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["catalogUseCase"]; exists {
		return nil, storedErr
	}
	return c.catalogUseCase, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
