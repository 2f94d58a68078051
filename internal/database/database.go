// Package database provides local database connection management and utilities.
//
// The store is an embedded SQLite database: every terminal owns its own file,
// and business entities share the storage engine with the outbox queue so that
// "create entity" and "enqueue its sync command" commit atomically.
package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Config holds local database configuration settings.
type Config struct {
	// Path is the SQLite database file path, or ":memory:" for tests.
	Path        string
	BusyTimeout time.Duration
}

// Connect opens the embedded SQLite database with the given configuration.
// WAL journaling keeps UI reads from blocking behind dispatcher writes, and
// foreign keys are enforced so outbox rows cannot outlive their entities.
func Connect(cfg Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; funnel all writes through one connection
	// so concurrent local transactions queue instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DSN builds the SQLite connection string with the required pragmas.
func DSN(cfg Config) string {
	busyMillis := cfg.BusyTimeout.Milliseconds()
	if busyMillis <= 0 {
		busyMillis = 10000
	}

	query := url.Values{}
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyMillis))
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "foreign_keys(1)")
	query.Add("_time_format", "sqlite")

	return fmt.Sprintf("file:%s?%s", cfg.Path, query.Encode())
}
