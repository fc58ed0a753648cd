package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pointable/pointable/ddl"
)

const trackingTableName = "_pointable_migrations"

// EnsureTrackingTable creates the _pointable_migrations table if it doesn't
// exist. Applied migrations are tracked by name in plan order.
func EnsureTrackingTable(ctx context.Context, db *sql.DB, dialect string) error {
	var createSQL string

	switch dialect {
	case ddl.Postgres, ddl.MySQL:
		createSQL = `
			CREATE TABLE IF NOT EXISTS _pointable_migrations (
				name       VARCHAR(255) PRIMARY KEY,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`
	case ddl.Sqlite:
		createSQL = `
			CREATE TABLE IF NOT EXISTS _pointable_migrations (
				name       TEXT PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	_, err := db.ExecContext(ctx, createSQL)
	return err
}

// GetAppliedMigrations returns the names of applied migrations in
// application order.
func GetAppliedMigrations(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM _pointable_migrations ORDER BY applied_at, name")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}
	return names, nil
}

// RecordMigrationTx inserts a migration record within an existing
// transaction, so the migration SQL and its tracking record commit or roll
// back together.
func RecordMigrationTx(ctx context.Context, tx *sql.Tx, dialect, name string) error {
	var insertSQL string
	var args []interface{}

	switch dialect {
	case ddl.Postgres:
		insertSQL = `INSERT INTO _pointable_migrations (name, applied_at) VALUES ($1, $2)`
		args = []interface{}{name, time.Now()}
	case ddl.MySQL:
		insertSQL = `INSERT INTO _pointable_migrations (name, applied_at) VALUES (?, ?)`
		args = []interface{}{name, time.Now()}
	case ddl.Sqlite:
		insertSQL = `INSERT INTO _pointable_migrations (name, applied_at) VALUES (?, ?)`
		args = []interface{}{name, time.Now().UTC().Format(time.RFC3339Nano)}
	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}

	if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	return nil
}
