package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dialect selects the placeholder style of an SQLBackend.
type Dialect int

const (
	// DialectSQLite uses ? placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders.
	DialectPostgres
)

// Schema creates the table an SQLBackend reads and writes. It is valid for
// both SQLite and PostgreSQL.
const Schema = `
CREATE TABLE IF NOT EXISTS kv_store (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL
);
`

const (
	querySelect = `SELECT data FROM kv_store WHERE name = ?`
	queryUpsert = `INSERT INTO kv_store (name, data) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET data = excluded.data`
	queryDelete = `DELETE FROM kv_store WHERE name = ?`
)

// SQLBackend implements Backend on top of a kv_store table.
type SQLBackend struct {
	// DB is the database handle for executing queries.
	DB      *sql.DB
	dialect Dialect
}

// NewSQLBackend creates an SQLBackend. The kv_store table must exist; see
// Schema.
func NewSQLBackend(db *sql.DB, dialect Dialect) *SQLBackend {
	return &SQLBackend{DB: db, dialect: dialect}
}

// rebind rewrites ? placeholders into the dialect's form.
func (b *SQLBackend) rebind(query string) string {
	if b.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Get fetches the value stored under key.
func (b *SQLBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.DB.QueryRowContext(ctx, b.rebind(querySelect), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the value for key.
func (b *SQLBackend) Set(ctx context.Context, key, value string) error {
	if _, err := b.DB.ExecContext(ctx, b.rebind(queryUpsert), key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Remove deletes the row for key. Zero affected rows is fine.
func (b *SQLBackend) Remove(ctx context.Context, key string) error {
	if _, err := b.DB.ExecContext(ctx, b.rebind(queryDelete), key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
