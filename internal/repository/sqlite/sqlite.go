// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code: no C compiler needed, works everywhere Go works.
//
// DATABASE/SQL OVERVIEW:
// Go's standard library provides "database/sql", a generic interface for SQL databases.
// It works with any database through "drivers" (SQLite, Postgres, MySQL, etc.).
// Key types:
//   - sql.DB      : a connection pool (NOT a single connection!)
//   - sql.Tx      : a transaction
//   - sql.Row     : a single result row
//   - sql.Rows    : multiple result rows (must be closed!)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/recipe-box/internal/apperror"

	// The driver registers itself with database/sql as "sqlite" in its init().
	// We also use its Error type to read constraint failure codes.
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements repository.Store and repository.SessionRepository.
type DB struct {
	conn *sql.DB
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx, so the
// same insert helpers run inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database at dbPath and creates the tables.
//
// dbPath examples:
//   - "data/recipes.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// SINGLE CONNECTION:
// The pool is capped at one connection. SQLite serialises writers anyway, the
// per-connection PRAGMAs below then apply to every query, and a ":memory:"
// database stays one database instead of one per pooled connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. recipes.user_id and
	// sessions.user_id depend on them.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: creating tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables is idempotent: CREATE ... IF NOT EXISTS is safe on every start.
//
// Timestamps are stored as unix seconds (INTEGER) so comparisons in SQL are
// plain integer comparisons.
func (db *DB) createTables() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT    NOT NULL UNIQUE,
			password_hash TEXT    NOT NULL,
			image_url     TEXT,
			bio           TEXT,
			created_at    INTEGER NOT NULL DEFAULT (unixepoch())
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS recipes (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			title               TEXT    NOT NULL,
			instructions        TEXT    NOT NULL,
			minutes_to_complete INTEGER NOT NULL,
			user_id             INTEGER NOT NULL REFERENCES users(id),
			created_at          INTEGER NOT NULL DEFAULT (unixepoch())
		);
		CREATE INDEX IF NOT EXISTS idx_recipes_user_id ON recipes(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating recipes table: %w", err)
	}

	// Deleting a user takes their sessions with them, so a session can never
	// point at a user that no longer exists.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT    PRIMARY KEY,
			user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
	`)
	if err != nil {
		return fmt.Errorf("creating sessions table: %w", err)
	}

	return nil
}

// translateConstraint turns a SQLite constraint failure into an
// apperror.ErrIntegrity error. Anything else is returned unchanged.
//
// SQLite messages look like "UNIQUE constraint failed: users.username";
// the code tells us which kind, the message tells us which column.
func translateConstraint(err error) error {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	if sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	return constraintError(sqliteErr.Code(), sqliteErr.Error())
}

// constraintError picks the message from the extended result code, falling
// back to the message text when only the primary code is present.
func constraintError(code int, msg string) *apperror.AppError {
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		strings.Contains(msg, "UNIQUE constraint failed"):
		if strings.Contains(msg, "users.username") {
			return apperror.Integrity("username already taken")
		}
		return apperror.Integrity("duplicate value")
	case code == sqlite3.SQLITE_CONSTRAINT_NOTNULL,
		strings.Contains(msg, "NOT NULL constraint failed"):
		return apperror.Integrity(constraintColumn(msg, "NOT NULL constraint failed: ") + " required")
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
		strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return apperror.Integrity("referenced record does not exist")
	}
	return apperror.Integrity("constraint failed")
}

// constraintColumn pulls "user_id" out of "... NOT NULL constraint failed: recipes.user_id (1299)".
func constraintColumn(msg, marker string) string {
	i := strings.Index(msg, marker)
	if i < 0 {
		return "value"
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, " ("); j >= 0 {
		rest = rest[:j]
	}
	if j := strings.LastIndex(rest, "."); j >= 0 {
		rest = rest[j+1:]
	}
	if rest == "" {
		return "value"
	}
	return rest
}

// nullableString maps a NULL column to a nil pointer.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
