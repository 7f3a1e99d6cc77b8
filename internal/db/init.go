// Package db opens the SQL databases an SQLBackend can run on.
package db

import (
	"database/sql"
	"fmt"

	"github.com/atinyakov/valentine/internal/storage"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to dsn with driver, verifies the connection and creates the
// kv_store schema.
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite has a single writer.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(storage.Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}

// DialectFor maps a driver name to the placeholder dialect it needs.
func DialectFor(driver string) (storage.Dialect, error) {
	switch driver {
	case DriverSQLite:
		return storage.DialectSQLite, nil
	case DriverPostgres:
		return storage.DialectPostgres, nil
	default:
		return 0, fmt.Errorf("unsupported sql driver %q", driver)
	}
}
