package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupMock(t *testing.T, dialect Dialect) (*SQLBackend, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	backend := NewSQLBackend(db, dialect)
	cleanup := func() {
		db.Close()
	}
	return backend, mock, cleanup
}

func TestSQLBackend_Get_Found(t *testing.T) {
	backend, mock, cleanup := setupMock(t, DialectSQLite)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM kv_store WHERE name = ?`)).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow("[]"))

	v, ok, err := backend.Get(context.Background(), "k")
	if err != nil || !ok || v != "[]" {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSQLBackend_Get_Missing(t *testing.T) {
	backend, mock, cleanup := setupMock(t, DialectSQLite)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM kv_store WHERE name = ?`)).
		WithArgs("k").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))

	v, ok, err := backend.Get(context.Background(), "k")
	if err != nil || ok || v != "" {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}
}

func TestSQLBackend_Get_Error(t *testing.T) {
	backend, mock, cleanup := setupMock(t, DialectSQLite)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM kv_store`)).
		WithArgs("k").
		WillReturnError(errors.New("disk I/O error"))

	_, _, err := backend.Get(context.Background(), "k")
	if err == nil || !regexp.MustCompile(`select k`).MatchString(err.Error()) {
		t.Errorf("expected wrapped select error, got %v", err)
	}
}

func TestSQLBackend_Set_PostgresPlaceholders(t *testing.T) {
	backend, mock, cleanup := setupMock(t, DialectPostgres)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store (name, data) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET data = excluded.data`)).
		WithArgs("k", "[]").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := backend.Set(context.Background(), "k", "[]"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSQLBackend_Set_Error(t *testing.T) {
	backend, mock, cleanup := setupMock(t, DialectSQLite)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store`)).
		WithArgs("k", "[]").
		WillReturnError(errors.New("database or disk is full"))

	if err := backend.Set(context.Background(), "k", "[]"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSQLBackend_Remove(t *testing.T) {
	backend, mock, cleanup := setupMock(t, DialectSQLite)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM kv_store WHERE name = ?`)).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := backend.Remove(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRebind(t *testing.T) {
	b := &SQLBackend{dialect: DialectPostgres}
	got := b.rebind(`a = ? AND b = ?`)
	if got != `a = $1 AND b = $2` {
		t.Errorf("rebind = %q", got)
	}
	b.dialect = DialectSQLite
	if got := b.rebind(`a = ?`); got != `a = ?` {
		t.Errorf("sqlite rebind = %q", got)
	}
}
