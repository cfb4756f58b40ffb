package db

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Migrate creates the tables if they do not exist. The DDL differs per
// driver only in the id column (identity vs sqlite rowid alias).
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var statements []string

	switch driver {
	case DriverPostgres:
		statements = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS todos (
				id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
				user_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				completed BOOLEAN NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ
			)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_user ON todos (user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_user_completed ON todos (user_id, completed)`,
		}
	case DriverSQLite:
		statements = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS todos (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				title TEXT NOT NULL,
				completed BOOLEAN NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_user ON todos (user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_todos_user_completed ON todos (user_id, completed)`,
		}
	default:
		return fmt.Errorf("unknown db driver %q", driver)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
