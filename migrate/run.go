package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// Run executes all pending migrations from the plan. It is safe to call on
// every application startup - it only runs unapplied migrations, tracked by
// name, in plan order.
func Run(ctx context.Context, db *sql.DB, plan *MigrationPlan, dialect string) error {
	// Names must be unique; the tracking table keys on them.
	seen := make(map[string]bool, len(plan.Migrations))
	for _, migration := range plan.Migrations {
		if migration.Name == "" {
			return fmt.Errorf("migration with empty name in plan")
		}
		if seen[migration.Name] {
			return fmt.Errorf("duplicate migration name: %q", migration.Name)
		}
		seen[migration.Name] = true
	}

	if err := EnsureTrackingTable(ctx, db, dialect); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	applied, err := GetAppliedMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	appliedSet := make(map[string]bool)
	for _, name := range applied {
		appliedSet[name] = true
	}

	for _, migration := range plan.Migrations {
		if appliedSet[migration.Name] {
			continue
		}

		var sqlStmt string
		switch dialect {
		case Postgres:
			sqlStmt = migration.Instructions.Postgres
		case MySQL:
			sqlStmt = migration.Instructions.MySQL
		case Sqlite:
			sqlStmt = migration.Instructions.Sqlite
		default:
			return fmt.Errorf("unsupported dialect: %s", dialect)
		}

		if err := runMigrationInTransaction(ctx, db, dialect, migration.Name, sqlStmt); err != nil {
			return err
		}
	}

	return nil
}

// runMigrationInTransaction executes a single migration within a
// transaction. Both the SQL execution and the tracking record are within
// the same transaction; a failed step leaves the database untouched.
func runMigrationInTransaction(ctx context.Context, db *sql.DB, dialect, name, sqlStmt string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction for migration %s: %w", name, err)
	}
	defer tx.Rollback() // no-op if committed

	// A migration can have no rendition in this dialect; it is still
	// recorded so plan order stays consistent across dialects.
	if sqlStmt != "" {
		if _, err := tx.ExecContext(ctx, sqlStmt); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", name, err)
		}
	}

	if err := RecordMigrationTx(ctx, tx, dialect, name); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", name, err)
	}
	return nil
}

// DetectDialect attempts to detect the database dialect from a live
// connection by probing dialect-specific version functions.
func DetectDialect(db *sql.DB) (string, error) {
	var version string

	if err := db.QueryRow("SELECT version()").Scan(&version); err == nil {
		if len(version) > 0 && (version[0] == 'P' || version[0] == 'p') {
			return Postgres, nil
		}
		return MySQL, nil
	}

	if err := db.QueryRow("SELECT VERSION()").Scan(&version); err == nil {
		return MySQL, nil
	}

	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err == nil {
		return Sqlite, nil
	}

	return "", fmt.Errorf("could not detect database dialect")
}
