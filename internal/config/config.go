// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// WorkspaceID is the tenant/workspace this terminal belongs to.
	WorkspaceID string
	// DeviceID identifies this terminal within the workspace.
	DeviceID string

	// ServerBaseURL is the base URL of the central server API.
	ServerBaseURL string
	// ServerTimeout bounds every command delivery call to the central server.
	ServerTimeout time.Duration
	// ServerRefreshToken is the long-lived refresh token issued to this device.
	ServerRefreshToken string

	// DBPath is the filesystem path of the local SQLite database.
	DBPath string
	// DBBusyTimeout is the SQLite busy timeout for concurrent local access.
	DBBusyTimeout time.Duration

	// ServerHost is the host address the local façade server binds to.
	ServerHost string
	// ServerPort is the port the local façade server listens on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// SyncBatchSize is the maximum number of commands fetched per drain.
	SyncBatchSize int
	// SyncMaxAttempts is the number of transient delivery failures after which
	// a command is reclassified as permanently failed.
	SyncMaxAttempts int
	// SyncInitialBackoff is the first inter-drain delay after a network failure.
	SyncInitialBackoff time.Duration
	// SyncMaxBackoff caps the exponential inter-drain delay.
	SyncMaxBackoff time.Duration
	// SyncInterval is the periodic drain interval while reachable.
	SyncInterval time.Duration
	// SyncAutoEnabled is the initial state of the automatic-sync toggle.
	SyncAutoEnabled bool

	// ConnectivityPollInterval is how often reachability is probed.
	ConnectivityPollInterval time.Duration
	// ConnectivityProbeTimeout bounds a single reachability probe.
	ConnectivityProbeTimeout time.Duration

	// CatalogPageSize is the number of products requested per catalog pull page.
	CatalogPageSize int

	// RateLimitTriggerEnabled indicates whether the manual sync trigger endpoint is rate limited.
	RateLimitTriggerEnabled bool
	// RateLimitTriggerPerSec is the number of manual triggers allowed per second.
	RateLimitTriggerPerSec float64
	// RateLimitTriggerBurst is the burst size for the manual trigger rate limit.
	RateLimitTriggerBurst int

	// CORSEnabled indicates whether CORS is enabled on the façade.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Workspace / device identity
		WorkspaceID: env.GetString("WORKSPACE_ID", ""),
		DeviceID:    env.GetString("DEVICE_ID", ""),

		// Central server
		ServerBaseURL:      env.GetString("SERVER_BASE_URL", "http://localhost:9000"),
		ServerTimeout:      env.GetDuration("SERVER_TIMEOUT_SECONDS", 15, time.Second),
		ServerRefreshToken: env.GetString("SERVER_REFRESH_TOKEN", ""),

		// Local database
		DBPath:        env.GetString("DB_PATH", "possync.db"),
		DBBusyTimeout: env.GetDuration("DB_BUSY_TIMEOUT_MS", 10000, time.Millisecond),

		// Façade server
		ServerHost: env.GetString("SERVER_HOST", "127.0.0.1"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Sync engine
		SyncBatchSize:      env.GetInt("SYNC_BATCH_SIZE", 50),
		SyncMaxAttempts:    env.GetInt("SYNC_MAX_ATTEMPTS", 8),
		SyncInitialBackoff: env.GetDuration("SYNC_INITIAL_BACKOFF_SECONDS", 2, time.Second),
		SyncMaxBackoff:     env.GetDuration("SYNC_MAX_BACKOFF_SECONDS", 300, time.Second),
		SyncInterval:       env.GetDuration("SYNC_INTERVAL_SECONDS", 60, time.Second),
		SyncAutoEnabled:    env.GetBool("SYNC_AUTO_ENABLED", true),

		// Connectivity
		ConnectivityPollInterval: env.GetDuration("CONNECTIVITY_POLL_INTERVAL_SECONDS", 10, time.Second),
		ConnectivityProbeTimeout: env.GetDuration("CONNECTIVITY_PROBE_TIMEOUT_SECONDS", 3, time.Second),

		// Catalog pull sync
		CatalogPageSize: env.GetInt("CATALOG_PAGE_SIZE", 500),

		// Rate limiting for the manual sync trigger endpoint
		RateLimitTriggerEnabled: env.GetBool("RATE_LIMIT_TRIGGER_ENABLED", true),
		RateLimitTriggerPerSec:  env.GetFloat64("RATE_LIMIT_TRIGGER_PER_SEC", 1.0),
		RateLimitTriggerBurst:   env.GetInt("RATE_LIMIT_TRIGGER_BURST", 3),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "possync"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
