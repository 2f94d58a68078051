// Package testutil provides testing utilities for local database integration tests.
//
// Database Setup:
//
//	db := testutil.SetupDB(t)
//
// Each test gets its own SQLite database file under t.TempDir() with all
// migrations applied, so tests can run in parallel without sharing state.
// Cleanup is registered automatically via t.Cleanup.
//
// Migration Path:
//
// Migrations are automatically discovered by walking up from the current
// working directory until a "migrations/sqlite" directory is found.
package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/require"

	"github.com/allisson/possync/internal/database"
)

// SetupDB creates a fresh SQLite database for a test and runs all migrations.
func SetupDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "possync_test.db")

	db, err := database.Connect(database.Config{
		Path:        dbPath,
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err, "failed to open sqlite test database")

	runMigrations(t, db)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// runMigrations applies all pending migrations to the test database.
func runMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	require.NoError(t, err, "failed to create sqlite migration driver")

	migrationsPath, err := getMigrationsPath()
	require.NoError(t, err, "failed to find sqlite migrations path")

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	require.NoError(t, err, "failed to create migrate instance")

	// The migrate instance is intentionally not closed: it wraps a database
	// connection owned by the caller, and closing it would close that too.

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, fmt.Sprintf("failed to run migrations from %s", migrationsPath))
	}
}

// getMigrationsPath resolves the absolute path to the sqlite migration files.
// Walks up the directory tree from the current working directory.
func getMigrationsPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	for {
		migrationsPath := filepath.Join(dir, "migrations", "sqlite")
		if _, err := os.Stat(migrationsPath); err == nil {
			return migrationsPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("migrations directory not found (started from %s)", dir)
		}
		dir = parent
	}
}
