// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// CONSISTENCY MODEL:
// ──────────────────
// The pool is capped at ONE connection and every transaction begins with
// BEGIN IMMEDIATE (the _txlock=immediate DSN option), so a transaction
// holds SQLite's write lock from its first statement. Two registrations
// racing for the last free room therefore run one after the other, and a
// vacate's balance check cannot interleave with a payment.
//
// The schema backs this up: rooms.student_id is UNIQUE and a CHECK ties
// the occupied flag to the presence of an occupant.
//
// Importing github.com/mattn/go-sqlite3 registers the "sqlite3" driver
// with database/sql; its error type is also used to spot UNIQUE
// violations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/hostel-api/internal/config"
	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx, so read helpers can
// run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT    NOT NULL UNIQUE,
	password_hash TEXT    NOT NULL,
	role          TEXT    NOT NULL CHECK (role IN ('student', 'admin')),
	full_name     TEXT    NOT NULL DEFAULT '',
	phone         TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rooms (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	number     INTEGER NOT NULL UNIQUE,
	occupied   BOOLEAN NOT NULL DEFAULT 0,
	student_id INTEGER UNIQUE REFERENCES users(id),
	CHECK ((occupied = 1 AND student_id IS NOT NULL) OR
	       (occupied = 0 AND student_id IS NULL))
);

CREATE TABLE IF NOT EXISTS rent_charges (
	id         INTEGER  PRIMARY KEY AUTOINCREMENT,
	period     TEXT     NOT NULL,
	amount     INTEGER  NOT NULL CHECK (amount > 0),
	status     TEXT     NOT NULL DEFAULT 'pending',
	student_id INTEGER  NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rent_charges_student ON rent_charges(student_id);
CREATE INDEX IF NOT EXISTS idx_rent_charges_period ON rent_charges(period);

CREATE TABLE IF NOT EXISTS payments (
	id         INTEGER  PRIMARY KEY AUTOINCREMENT,
	amount     INTEGER  NOT NULL CHECK (amount > 0),
	paid_at    DATETIME NOT NULL,
	student_id INTEGER  NOT NULL REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_payments_student ON payments(student_id);

CREATE TABLE IF NOT EXISTS complaints (
	id             INTEGER  PRIMARY KEY AUTOINCREMENT,
	title          TEXT     NOT NULL,
	description    TEXT     NOT NULL,
	attachment_ref TEXT     NOT NULL DEFAULT '',
	status         TEXT     NOT NULL DEFAULT 'pending',
	student_id     INTEGER  NOT NULL REFERENCES users(id),
	created_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_complaints_student ON complaints(student_id);
`

// New opens the database at cfg.StoragePath and makes sure the schema
// exists.
func New(cfg *config.Config) (*SQLite, error) {
	if dir := filepath.Dir(cfg.StoragePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create %s: %w", dir, err)
		}
	}
	return Open(cfg.StoragePath)
}

// Open opens (or creates) the SQLite database at path. ":memory:" gives a
// private in-memory database, which is what the tests use.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: open db: %w", err)
	}

	// One connection: SQLite has a single writer anyway, and an in-memory
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: create schema: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying connection.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error fn returns.
func (s *SQLite) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
