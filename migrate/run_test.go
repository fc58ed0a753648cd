package migrate

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/pointable/pointable/pointers"
)

// openSqlite opens an in-memory database pinned to a single connection so
// every statement sees the same memory database.
func openSqlite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name,
	).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	return count > 0
}

func TestRun_AppliesPlanInOrder(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()

	plan := NewPlan(pointers.Config{})
	plan.AddEmptyTable("authors", func(tb *PointableBuilder) error {
		tb.String("name")
		return nil
	})
	plan.AddEmptyTable("books", func(tb *PointableBuilder) error {
		tb.String("title")
		return nil
	})

	if err := Run(ctx, db, plan, Sqlite); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, table := range []string{"authors", "books"} {
		if !tableExists(t, db, table) {
			t.Errorf("expected table %s to exist", table)
		}
	}

	applied, err := GetAppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	want := []string{"create_authors_table", "create_books_table"}
	if len(applied) != len(want) {
		t.Fatalf("expected %d applied migrations, got %v", len(want), applied)
	}
	for i := range want {
		if applied[i] != want[i] {
			t.Errorf("applied[%d] = %q, want %q", i, applied[i], want[i])
		}
	}
}

func TestRun_SkipsAppliedMigrations(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()

	plan := NewPlan(pointers.Config{})
	plan.AddEmptyTable("authors", func(tb *PointableBuilder) error {
		tb.String("name")
		return nil
	})

	if err := Run(ctx, db, plan, Sqlite); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	// A second run would fail on CREATE TABLE if the migration re-ran.
	if err := Run(ctx, db, plan, Sqlite); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	applied, err := GetAppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("expected 1 applied migration, got %v", applied)
	}
}

func TestRun_ResumesPartiallyAppliedPlan(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()

	first := NewPlan(pointers.Config{})
	first.AddEmptyTable("authors", func(tb *PointableBuilder) error {
		tb.String("name")
		return nil
	})
	if err := Run(ctx, db, first, Sqlite); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	second := NewPlan(pointers.Config{})
	second.AddEmptyTable("authors", func(tb *PointableBuilder) error {
		tb.String("name")
		return nil
	})
	second.AddEmptyTable("books", func(tb *PointableBuilder) error {
		tb.String("title")
		return nil
	})
	if err := Run(ctx, db, second, Sqlite); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	if !tableExists(t, db, "books") {
		t.Error("expected books table after resumed run")
	}
}

func TestRun_EmptyMigrationName(t *testing.T) {
	db := openSqlite(t)

	plan := NewPlan(pointers.Config{})
	plan.Migrations = append(plan.Migrations, Migration{Name: ""})

	err := Run(context.Background(), db, plan, Sqlite)
	if err == nil || !strings.Contains(err.Error(), "empty name") {
		t.Errorf("expected empty name error, got %v", err)
	}
}

func TestRun_DuplicateMigrationName(t *testing.T) {
	db := openSqlite(t)

	plan := NewPlan(pointers.Config{})
	plan.Migrations = append(plan.Migrations,
		Migration{Name: "twice"},
		Migration{Name: "twice"},
	)

	err := Run(context.Background(), db, plan, Sqlite)
	if err == nil || !strings.Contains(err.Error(), "duplicate migration name") {
		t.Errorf("expected duplicate name error, got %v", err)
	}
}

func TestRun_UnsupportedDialect(t *testing.T) {
	db := openSqlite(t)

	plan := NewPlan(pointers.Config{})
	plan.Migrations = append(plan.Migrations, Migration{Name: "noop"})

	if err := Run(context.Background(), db, plan, "oracle"); err == nil {
		t.Error("expected unsupported dialect error")
	}
}

func TestRun_RecordsMigrationsWithoutRendition(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()

	// No sqlite rendition, still tracked so plan order stays consistent
	// across dialects.
	plan := NewPlan(pointers.Config{})
	plan.Migrations = append(plan.Migrations, Migration{
		Name: "postgres_only_step",
		Instructions: MigrationInstructions{
			Postgres: `CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
		},
	})

	if err := Run(ctx, db, plan, Sqlite); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	applied, err := GetAppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	if len(applied) != 1 || applied[0] != "postgres_only_step" {
		t.Errorf("expected postgres_only_step recorded, got %v", applied)
	}
}

func TestRun_FailedMigrationRollsBack(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()

	plan := NewPlan(pointers.Config{})
	plan.Migrations = append(plan.Migrations, Migration{
		Name: "broken",
		Instructions: MigrationInstructions{
			Sqlite: `CREATE TABLE "survivors" ("id" TEXT PRIMARY KEY);` + "\n" +
				`CREATE TABLE "survivors" ("id" TEXT PRIMARY KEY)`,
		},
	})

	if err := Run(ctx, db, plan, Sqlite); err == nil {
		t.Fatal("expected migration failure")
	}

	if tableExists(t, db, "survivors") {
		t.Error("failed migration should leave no tables behind")
	}
	applied, err := GetAppliedMigrations(ctx, db)
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("failed migration must not be recorded, got %v", applied)
	}
}

func TestDetectDialect_Sqlite(t *testing.T) {
	db := openSqlite(t)

	dialect, err := DetectDialect(db)
	if err != nil {
		t.Fatalf("DetectDialect failed: %v", err)
	}
	if dialect != Sqlite {
		t.Errorf("expected sqlite, got %s", dialect)
	}
}
