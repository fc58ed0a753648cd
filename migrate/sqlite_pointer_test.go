package migrate

// End-to-end exercise of the pointer abstraction against sqlite: the trigger
// protocol, the registry, and the three reference variants, all driven
// through a real migration run.

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pointable/pointable/ident"
	"github.com/pointable/pointable/pointers"
)

var (
	notesTableID = ident.MustCast("01800000-0000-7000-8000-00000000000a")
	tagsTableID  = ident.MustCast("01800000-0000-7000-8000-00000000000b")
)

// pointerPlan builds the shared test schema: two pointable tables, a mixin
// table keyed by pointer, and an ordinary table with one column per
// reference variant.
func pointerPlan(t *testing.T) *MigrationPlan {
	t.Helper()
	plan := NewPlan(pointers.Config{})
	if _, err := plan.InitPointers(Up); err != nil {
		t.Fatalf("InitPointers failed: %v", err)
	}
	_, err := plan.AddPointableTable("notes", notesTableID, func(tb *PointableBuilder) error {
		tb.Text("body")
		return nil
	})
	if err != nil {
		t.Fatalf("AddPointableTable(notes) failed: %v", err)
	}
	_, err = plan.AddPointableTable("tags", tagsTableID, func(tb *PointableBuilder) error {
		tb.String("label")
		return nil
	})
	if err != nil {
		t.Fatalf("AddPointableTable(tags) failed: %v", err)
	}
	_, err = plan.AddMixinTable("note_meta", func(tb *PointableBuilder) error {
		tb.Text("details").Nullable()
		return nil
	})
	if err != nil {
		t.Fatalf("AddMixinTable failed: %v", err)
	}
	_, err = plan.AddEmptyTable("links", func(tb *PointableBuilder) error {
		tb.Identifier("id").PrimaryKey()
		tb.StrongPointer("owner_id")
		tb.WeakPointer("context_id")
		tb.UnbreakablePointer("anchor_id").Nullable()
		return nil
	})
	if err != nil {
		t.Fatalf("AddEmptyTable failed: %v", err)
	}
	return plan
}

func setupPointerDB(t *testing.T) *sql.DB {
	t.Helper()
	db := openSqlite(t)
	if err := Run(context.Background(), db, pointerPlan(t), Sqlite); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return db
}

func insertNote(t *testing.T, db *sql.DB) ident.ID {
	t.Helper()
	id := ident.Generate()
	if _, err := db.Exec(`INSERT INTO "notes" ("id", "body") VALUES (?, ?)`, id, "scribble"); err != nil {
		t.Fatalf("failed to insert note: %v", err)
	}
	return id
}

func insertTag(t *testing.T, db *sql.DB) ident.ID {
	t.Helper()
	id := ident.Generate()
	if _, err := db.Exec(`INSERT INTO "tags" ("id", "label") VALUES (?, ?)`, id, "keeper"); err != nil {
		t.Fatalf("failed to insert tag: %v", err)
	}
	return id
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var count int
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return count
}

func TestPointerMaintainedAcrossRowLifetime(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	id := insertNote(t, db)

	tableID, err := store.TableFor(ctx, id)
	if err != nil {
		t.Fatalf("TableFor failed: %v", err)
	}
	if tableID != notesTableID {
		t.Errorf("pointer owned by %s, want %s", tableID, notesTableID)
	}

	if _, err := db.Exec(`DELETE FROM "notes" WHERE "id" = ?`, id); err != nil {
		t.Fatalf("failed to delete note: %v", err)
	}
	if _, err := store.TableFor(ctx, id); !errors.Is(err, pointers.ErrUnknownPointer) {
		t.Errorf("expected ErrUnknownPointer after delete, got %v", err)
	}
}

func TestRegistryRegistersItself(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	registry := pointers.NewRegistry(db, Sqlite, pointers.Config{})
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	id, err := registry.Resolve(ctx, pointers.DefaultRegistryTable)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != pointers.RegistryID {
		t.Errorf("registry registered as %s, want %s", id, pointers.RegistryID)
	}

	// Registry rows inserted after installation go through the trigger, so
	// each later registration owns a pointer held by the registry itself.
	tableID, err := store.TableFor(ctx, notesTableID)
	if err != nil {
		t.Fatalf("TableFor(notesTableID) failed: %v", err)
	}
	if tableID != pointers.RegistryID {
		t.Errorf("registration pointer owned by %s, want registry", tableID)
	}

	// The registry's own record predates its triggers and has no pointer.
	if _, err := store.TableFor(ctx, pointers.RegistryID); !errors.Is(err, pointers.ErrUnknownPointer) {
		t.Errorf("expected no pointer for the registry's own record, got %v", err)
	}
}

func TestInsertIntoUnregisteredTableFails(t *testing.T) {
	db := setupPointerDB(t)

	// A table wearing the trigger without a registry entry: every insert
	// must be refused, never silently left pointerless.
	if _, err := db.Exec(`CREATE TABLE "strays" ("id" TEXT PRIMARY KEY)`); err != nil {
		t.Fatalf("failed to create strays: %v", err)
	}
	if _, err := db.Exec(pointers.CreateInsertTriggerSQL(Sqlite, pointers.Config{}, "strays")); err != nil {
		t.Fatalf("failed to install trigger: %v", err)
	}

	_, err := db.Exec(`INSERT INTO "strays" ("id") VALUES (?)`, ident.Generate())
	if err == nil {
		t.Fatal("expected insert into unregistered table to fail")
	}
	if !pointers.IsUnregisteredInsert(err) {
		t.Errorf("IsUnregisteredInsert(%v) = false", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM "strays"`); n != 0 {
		t.Errorf("expected 0 stray rows, got %d", n)
	}
}

func TestTriggerInstallIsRerunnable(t *testing.T) {
	db := setupPointerDB(t)

	// Drop-then-create: reinstallation replaces, never duplicates.
	if _, err := db.Exec(pointers.CreateInsertTriggerSQL(Sqlite, pointers.Config{}, "notes")); err != nil {
		t.Fatalf("failed to reinstall trigger: %v", err)
	}

	n := countRows(t, db,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger' AND name = ?",
		pointers.DefaultConfig().InsertTriggerName("notes"))
	if n != 1 {
		t.Errorf("expected exactly 1 insert trigger on notes, got %d", n)
	}

	insertNote(t, db)
}

func TestPointerCreateIgnoresDuplicate(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	id := insertNote(t, db)
	if err := store.Create(ctx, id, notesTableID); err != nil {
		t.Fatalf("duplicate Create failed: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM "pointers" WHERE "id" = ?`, id); n != 1 {
		t.Errorf("expected 1 pointer row, got %d", n)
	}
}

func TestRegisterKeepsExistingID(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	registry := pointers.NewRegistry(db, Sqlite, pointers.Config{})

	if err := registry.Register(ctx, ident.Generate(), "notes"); err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}
	id, err := registry.Resolve(ctx, "notes")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if id != notesTableID {
		t.Errorf("re-registration changed id to %s", id)
	}
}

func TestRegisterDiscardedCandidateLeavesNoPointer(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	registry := pointers.NewRegistry(db, Sqlite, pointers.Config{})
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	// Re-registering an existing name must discard the candidate row before
	// the registry's own insert trigger sees it; a losing id gets no pointer.
	loser := ident.Generate()
	if err := registry.Register(ctx, loser, "notes"); err != nil {
		t.Fatalf("re-registration failed: %v", err)
	}
	if _, err := store.TableFor(ctx, loser); !errors.Is(err, pointers.ErrUnknownPointer) {
		t.Errorf("expected no pointer for the discarded id, got %v", err)
	}
}

func TestInitPointersRerunLeavesStateUnchanged(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	before := countRows(t, db, `SELECT COUNT(*) FROM "pointers"`)

	init := pointerPlan(t).Migrations[0]
	if init.Name != "init_pointers" {
		t.Fatalf("unexpected first migration: %s", init.Name)
	}
	if _, err := db.Exec(init.Instructions.Sqlite); err != nil {
		t.Fatalf("re-running install batch failed: %v", err)
	}

	if n := countRows(t, db, `SELECT COUNT(*) FROM "pointers"`); n != before {
		t.Errorf("pointer count changed from %d to %d on re-run", before, n)
	}
	// The registry's own record must still predate its triggers: a re-run
	// must not mint a pointer for it.
	if _, err := store.TableFor(ctx, pointers.RegistryID); !errors.Is(err, pointers.ErrUnknownPointer) {
		t.Errorf("expected no pointer for the registry's own record, got %v", err)
	}
}

func TestRegistryInstalled(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()
	registry := pointers.NewRegistry(db, Sqlite, pointers.Config{})

	installed, err := registry.Installed(ctx)
	if err != nil {
		t.Fatalf("Installed failed: %v", err)
	}
	if installed {
		t.Error("expected Installed to be false before setup")
	}

	if err := Run(ctx, db, pointerPlan(t), Sqlite); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	installed, err = registry.Installed(ctx)
	if err != nil {
		t.Fatalf("Installed failed: %v", err)
	}
	if !installed {
		t.Error("expected Installed to be true after setup")
	}
}

func TestRegistryListsTables(t *testing.T) {
	db := setupPointerDB(t)
	registry := pointers.NewRegistry(db, Sqlite, pointers.Config{})

	records, err := registry.Tables(context.Background())
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	// Ordered by name: notes, pointer_tables, tags.
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %v", records)
	}
	if records[0].Table != "notes" || records[0].ID != notesTableID {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Table != pointers.DefaultRegistryTable || records[1].ID != pointers.RegistryID {
		t.Errorf("unexpected second record: %+v", records[1])
	}
	if records[2].Table != "tags" || records[2].ID != tagsTableID {
		t.Errorf("unexpected third record: %+v", records[2])
	}
}

func TestStrongPointerDeletesReferencingRow(t *testing.T) {
	db := setupPointerDB(t)

	owner := insertNote(t, db)
	if _, err := db.Exec(`INSERT INTO "links" ("id", "owner_id") VALUES (?, ?)`,
		ident.Generate(), owner); err != nil {
		t.Fatalf("failed to insert link: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM "notes" WHERE "id" = ?`, owner); err != nil {
		t.Fatalf("failed to delete note: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM "links"`); n != 0 {
		t.Errorf("expected link row to cascade away, got %d rows", n)
	}
}

func TestWeakPointerNullsOutReference(t *testing.T) {
	db := setupPointerDB(t)

	owner := insertTag(t, db)
	contextID := insertNote(t, db)
	linkID := ident.Generate()
	if _, err := db.Exec(`INSERT INTO "links" ("id", "owner_id", "context_id") VALUES (?, ?, ?)`,
		linkID, owner, contextID); err != nil {
		t.Fatalf("failed to insert link: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM "notes" WHERE "id" = ?`, contextID); err != nil {
		t.Fatalf("failed to delete note: %v", err)
	}

	var got sql.NullString
	if err := db.QueryRow(`SELECT "context_id" FROM "links" WHERE "id" = ?`, linkID).Scan(&got); err != nil {
		t.Fatalf("failed to read link: %v", err)
	}
	if got.Valid {
		t.Errorf("expected context_id to be nulled, got %s", got.String)
	}
}

func TestUnbreakablePointerRefusesDeletion(t *testing.T) {
	db := setupPointerDB(t)

	owner := insertTag(t, db)
	anchor := insertNote(t, db)
	if _, err := db.Exec(`INSERT INTO "links" ("id", "owner_id", "anchor_id") VALUES (?, ?, ?)`,
		ident.Generate(), owner, anchor); err != nil {
		t.Fatalf("failed to insert link: %v", err)
	}

	// The delete trigger's pointer removal hits the RESTRICT constraint,
	// which aborts the whole statement: the note survives.
	if _, err := db.Exec(`DELETE FROM "notes" WHERE "id" = ?`, anchor); err == nil {
		t.Fatal("expected delete of anchored note to be refused")
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM "notes" WHERE "id" = ?`, anchor); n != 1 {
		t.Errorf("expected anchored note to survive, got %d rows", n)
	}

	// Dropping the link releases the anchor.
	if _, err := db.Exec(`DELETE FROM "links"`); err != nil {
		t.Fatalf("failed to clear links: %v", err)
	}
	if _, err := db.Exec(`DELETE FROM "notes" WHERE "id" = ?`, anchor); err != nil {
		t.Errorf("expected delete to succeed after link removal: %v", err)
	}
}

func TestMixinRowDiesWithItsPointer(t *testing.T) {
	db := setupPointerDB(t)

	id := insertNote(t, db)
	if _, err := db.Exec(`INSERT INTO "note_meta" ("id", "details") VALUES (?, ?)`, id, "starred"); err != nil {
		t.Fatalf("failed to insert mixin row: %v", err)
	}

	if _, err := db.Exec(`DELETE FROM "notes" WHERE "id" = ?`, id); err != nil {
		t.Fatalf("failed to delete note: %v", err)
	}
	if n := countRows(t, db, `SELECT COUNT(*) FROM "note_meta"`); n != 0 {
		t.Errorf("expected mixin row to cascade away, got %d rows", n)
	}
}

func TestRepoint(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	id := insertNote(t, db)
	if err := store.Repoint(ctx, id, tagsTableID); err != nil {
		t.Fatalf("Repoint failed: %v", err)
	}
	tableID, err := store.TableFor(ctx, id)
	if err != nil {
		t.Fatalf("TableFor failed: %v", err)
	}
	if tableID != tagsTableID {
		t.Errorf("pointer owned by %s after repoint, want %s", tableID, tagsTableID)
	}

	if err := store.Repoint(ctx, ident.Generate(), tagsTableID); !errors.Is(err, pointers.ErrUnknownPointer) {
		t.Errorf("expected ErrUnknownPointer, got %v", err)
	}
}

func TestDeregisterCascadesPointers(t *testing.T) {
	db := setupPointerDB(t)
	ctx := context.Background()
	registry := pointers.NewRegistry(db, Sqlite, pointers.Config{})
	store := pointers.NewStore(db, Sqlite, pointers.Config{})

	id := insertNote(t, db)

	// Deregistering a table takes every pointer it owned with it.
	if err := registry.Deregister(ctx, notesTableID); err != nil {
		t.Fatalf("Deregister failed: %v", err)
	}
	if _, err := store.TableFor(ctx, id); !errors.Is(err, pointers.ErrUnknownPointer) {
		t.Errorf("expected pointer to cascade away with registration, got %v", err)
	}
	if _, err := registry.Resolve(ctx, "notes"); !errors.Is(err, pointers.ErrUnknownTable) {
		t.Errorf("expected ErrUnknownTable, got %v", err)
	}
}

func TestTeardownRemovesEverything(t *testing.T) {
	db := openSqlite(t)
	ctx := context.Background()

	plan := pointerPlan(t)
	if _, err := plan.DropTable("links"); err != nil {
		t.Fatalf("DropTable failed: %v", err)
	}
	if _, err := plan.DropMixinTable("note_meta"); err != nil {
		t.Fatalf("DropMixinTable failed: %v", err)
	}
	if _, err := plan.DropPointableTable("tags", tagsTableID); err != nil {
		t.Fatalf("DropPointableTable(tags) failed: %v", err)
	}
	if _, err := plan.DropPointableTable("notes", notesTableID); err != nil {
		t.Fatalf("DropPointableTable(notes) failed: %v", err)
	}
	if _, err := plan.InitPointers(Down); err != nil {
		t.Fatalf("InitPointers(Down) failed: %v", err)
	}

	if err := Run(ctx, db, plan, Sqlite); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, table := range []string{"notes", "tags", "note_meta", "links",
		pointers.DefaultPointerTable, pointers.DefaultRegistryTable} {
		if tableExists(t, db, table) {
			t.Errorf("expected table %s to be gone", table)
		}
	}
	if n := countRows(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'trigger'"); n != 0 {
		t.Errorf("expected no triggers after teardown, got %d", n)
	}
}
