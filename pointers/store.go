package pointers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pointable/pointable/ddl"
	"github.com/pointable/pointable/ident"
)

// TableRecord is one registry row: a participating table's name and its
// stable identifier.
type TableRecord struct {
	ID    ident.ID
	Table string
}

// Registry reads and writes the table registry.
type Registry struct {
	db      *sql.DB
	dialect string
	conf    Config
}

// NewRegistry returns a registry backed by db, speaking the given dialect.
func NewRegistry(db *sql.DB, dialect string, conf Config) *Registry {
	return &Registry{db: db, dialect: dialect, conf: conf.WithDefaults()}
}

// Register upserts a (id, name) registry row. On name conflict the existing
// id is kept, never overwritten: re-registering a table is a no-op, so
// references embedded in application code and migrations stay valid across
// re-registration. The insert goes through a filtered SELECT rather than a
// VALUES row because the registry table wears the insert trigger, and a
// BEFORE INSERT trigger fires even for rows the conflict clause then
// discards; a row filtered out by the SELECT never reaches the trigger, so
// a losing candidate id mints no pointer. The unique index on the name
// column stays the serialization point under concurrent first-time
// registration.
func (r *Registry) Register(ctx context.Context, id ident.ID, name string) error {
	var stmt string
	switch r.dialect {
	case ddl.Postgres:
		stmt = fmt.Sprintf(`INSERT INTO %q ("id", "table") SELECT $1, $2 WHERE NOT EXISTS (SELECT 1 FROM %q WHERE "table" = $3) ON CONFLICT ("table") DO NOTHING`,
			r.conf.RegistryTable, r.conf.RegistryTable)
	case ddl.MySQL:
		stmt = fmt.Sprintf("INSERT IGNORE INTO `%s` (`id`, `table`) SELECT ?, ? FROM DUAL WHERE NOT EXISTS (SELECT 1 FROM `%s` WHERE `table` = ?)",
			r.conf.RegistryTable, r.conf.RegistryTable)
	case ddl.Sqlite:
		stmt = fmt.Sprintf(`INSERT INTO %q ("id", "table") SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM %q WHERE "table" = ?) ON CONFLICT ("table") DO NOTHING`,
			r.conf.RegistryTable, r.conf.RegistryTable)
	default:
		return fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	if _, err := r.db.ExecContext(ctx, stmt, id, name, name); err != nil {
		return fmt.Errorf("failed to register table %q: %w", name, err)
	}
	return nil
}

// Deregister deletes the registry row for id. Callers must already have
// dropped the table's triggers and the table itself; pointer rows owned by
// the table are removed by the cascade on the pointer store's table_id.
func (r *Registry) Deregister(ctx context.Context, id ident.ID) error {
	var stmt string
	switch r.dialect {
	case ddl.Postgres:
		stmt = fmt.Sprintf(`DELETE FROM %q WHERE "id" = $1`, r.conf.RegistryTable)
	case ddl.MySQL:
		stmt = fmt.Sprintf("DELETE FROM `%s` WHERE `id` = ?", r.conf.RegistryTable)
	case ddl.Sqlite:
		stmt = fmt.Sprintf(`DELETE FROM %q WHERE "id" = ?`, r.conf.RegistryTable)
	default:
		return fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	if _, err := r.db.ExecContext(ctx, stmt, id); err != nil {
		return fmt.Errorf("failed to deregister table %s: %w", id, err)
	}
	return nil
}

// Resolve looks up the stable identifier for a table name.
func (r *Registry) Resolve(ctx context.Context, name string) (ident.ID, error) {
	var stmt string
	switch r.dialect {
	case ddl.Postgres:
		stmt = fmt.Sprintf(`SELECT "id" FROM %q WHERE "table" = $1`, r.conf.RegistryTable)
	case ddl.MySQL:
		stmt = fmt.Sprintf("SELECT `id` FROM `%s` WHERE `table` = ?", r.conf.RegistryTable)
	case ddl.Sqlite:
		stmt = fmt.Sprintf(`SELECT "id" FROM %q WHERE "table" = ?`, r.conf.RegistryTable)
	default:
		return ident.ID{}, fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	var id ident.ID
	err := r.db.QueryRowContext(ctx, stmt, name).Scan(&id)
	if err == sql.ErrNoRows {
		return ident.ID{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	if err != nil {
		return ident.ID{}, fmt.Errorf("failed to resolve table %q: %w", name, err)
	}
	return id, nil
}

// Installed reports whether the registry table exists in the database,
// distinguishing an absent abstraction from a query that failed for other
// reasons.
func (r *Registry) Installed(ctx context.Context) (bool, error) {
	var stmt string
	switch r.dialect {
	case ddl.Postgres:
		stmt = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	case ddl.MySQL:
		stmt = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
	case ddl.Sqlite:
		stmt = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	default:
		return false, fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, stmt, r.conf.RegistryTable).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check for registry table: %w", err)
	}
	return n > 0, nil
}

// Tables returns every registry row, ordered by name.
func (r *Registry) Tables(ctx context.Context) ([]TableRecord, error) {
	var stmt string
	switch r.dialect {
	case ddl.MySQL:
		stmt = fmt.Sprintf("SELECT `id`, `table` FROM `%s` ORDER BY `table`", r.conf.RegistryTable)
	case ddl.Postgres, ddl.Sqlite:
		stmt = fmt.Sprintf(`SELECT "id", "table" FROM %q ORDER BY "table"`, r.conf.RegistryTable)
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", r.dialect)
	}

	rows, err := r.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list registered tables: %w", err)
	}
	defer rows.Close()

	var records []TableRecord
	for rows.Next() {
		var rec TableRecord
		if err := rows.Scan(&rec.ID, &rec.Table); err != nil {
			return nil, fmt.Errorf("failed to scan table record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table records: %w", err)
	}
	return records, nil
}

// Store reads and maintains the pointer store. Normal pointer creation goes
// through the trigger protocol; Store exists for the trigger-equivalent
// conflict-ignore insert and for administrative corrections.
type Store struct {
	db      *sql.DB
	dialect string
	conf    Config
}

// NewStore returns a pointer store backed by db, speaking the given dialect.
func NewStore(db *sql.DB, dialect string, conf Config) *Store {
	return &Store{db: db, dialect: dialect, conf: conf.WithDefaults()}
}

// Create inserts a pointer row, ignoring a duplicate id silently. This
// mirrors the trigger body's conflict-ignore insert, which guards against
// the trigger firing twice for the same client-supplied id.
func (s *Store) Create(ctx context.Context, id, tableID ident.ID) error {
	var stmt string
	switch s.dialect {
	case ddl.Postgres:
		stmt = fmt.Sprintf(`INSERT INTO %q ("id", "table_id") VALUES ($1, $2) ON CONFLICT DO NOTHING`, s.conf.PointerTable)
	case ddl.MySQL:
		stmt = fmt.Sprintf("INSERT IGNORE INTO `%s` (`id`, `table_id`) VALUES (?, ?)", s.conf.PointerTable)
	case ddl.Sqlite:
		stmt = fmt.Sprintf(`INSERT INTO %q ("id", "table_id") VALUES (?, ?) ON CONFLICT DO NOTHING`, s.conf.PointerTable)
	default:
		return fmt.Errorf("unsupported dialect: %s", s.dialect)
	}

	if _, err := s.db.ExecContext(ctx, stmt, id, tableID); err != nil {
		return fmt.Errorf("failed to create pointer %s: %w", id, err)
	}
	return nil
}

// Repoint re-assigns which table a pointer belongs to. This is a corrective
// maintenance operation, not part of the normal insert flow.
func (s *Store) Repoint(ctx context.Context, pointerID, newTableID ident.ID) error {
	var stmt string
	switch s.dialect {
	case ddl.Postgres:
		stmt = fmt.Sprintf(`UPDATE %q SET "table_id" = $1 WHERE "id" = $2`, s.conf.PointerTable)
	case ddl.MySQL:
		stmt = fmt.Sprintf("UPDATE `%s` SET `table_id` = ? WHERE `id` = ?", s.conf.PointerTable)
	case ddl.Sqlite:
		stmt = fmt.Sprintf(`UPDATE %q SET "table_id" = ? WHERE "id" = ?`, s.conf.PointerTable)
	default:
		return fmt.Errorf("unsupported dialect: %s", s.dialect)
	}

	res, err := s.db.ExecContext(ctx, stmt, newTableID, pointerID)
	if err != nil {
		return fmt.Errorf("failed to repoint %s: %w", pointerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to repoint %s: %w", pointerID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownPointer, pointerID)
	}
	return nil
}

// TableFor returns the registry id of the table owning the pointer.
func (s *Store) TableFor(ctx context.Context, id ident.ID) (ident.ID, error) {
	var stmt string
	switch s.dialect {
	case ddl.MySQL:
		stmt = fmt.Sprintf("SELECT `table_id` FROM `%s` WHERE `id` = ?", s.conf.PointerTable)
	case ddl.Postgres:
		stmt = fmt.Sprintf(`SELECT "table_id" FROM %q WHERE "id" = $1`, s.conf.PointerTable)
	case ddl.Sqlite:
		stmt = fmt.Sprintf(`SELECT "table_id" FROM %q WHERE "id" = ?`, s.conf.PointerTable)
	default:
		return ident.ID{}, fmt.Errorf("unsupported dialect: %s", s.dialect)
	}

	var tableID ident.ID
	err := s.db.QueryRowContext(ctx, stmt, id).Scan(&tableID)
	if err == sql.ErrNoRows {
		return ident.ID{}, fmt.Errorf("%w: %s", ErrUnknownPointer, id)
	}
	if err != nil {
		return ident.ID{}, fmt.Errorf("failed to look up pointer %s: %w", id, err)
	}
	return tableID, nil
}
