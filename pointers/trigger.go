package pointers

// trigger.go - Trigger protocol SQL generation
//
// The protocol has two halves. On insert, a BEFORE INSERT trigger resolves
// the firing table's registry id and inserts the matching pointer row,
// ignoring duplicates; if the table has no registry entry the insert is
// aborted (fail-closed). On delete, an AFTER DELETE trigger removes the
// pointer row, which cascades, nulls, or is refused downstream according to
// each referencing column's variant.
//
// Postgres installs two shared trigger functions once and binds a thin
// trigger per table. MySQL and SQLite have no shared-function facility, so
// the body is inlined into each per-table trigger and the function
// installation steps are empty.
//
// Trigger creation has no "if not exists" form, so every create first drops
// any existing trigger of the same name. Installation is idempotent by
// construction rather than by a conditional guard.

import (
	"fmt"
	"strings"

	"github.com/pointable/pointable/ddl"
)

// quoteIdent quotes a schema identifier for the given dialect.
func quoteIdent(dialect, name string) string {
	if dialect == ddl.MySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// quoteString single-quotes a string literal.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// CreateInsertFunctionSQL returns the statement installing the shared
// BEFORE INSERT trigger function. Empty for dialects that inline the body
// into each per-table trigger.
func CreateInsertFunctionSQL(dialect string, c Config) string {
	c = c.WithDefaults()
	if dialect != ddl.Postgres {
		return ""
	}
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
DECLARE
  pointed_table_id uuid;
BEGIN
  SELECT "id" INTO pointed_table_id FROM %s WHERE "table" = TG_TABLE_NAME;
  IF pointed_table_id IS NULL THEN
    RAISE EXCEPTION 'table %% %s', TG_TABLE_NAME;
  END IF;
  INSERT INTO %s ("id", "table_id") VALUES (NEW."id", pointed_table_id)
    ON CONFLICT DO NOTHING;
  RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
		quoteIdent(dialect, c.InsertFunction),
		quoteIdent(dialect, c.RegistryTable),
		unregisteredMessage,
		quoteIdent(dialect, c.PointerTable))
}

// DropInsertFunctionSQL returns the statement removing the shared insert
// trigger function. Empty where no function was installed.
func DropInsertFunctionSQL(dialect string, c Config) string {
	c = c.WithDefaults()
	if dialect != ddl.Postgres {
		return ""
	}
	return fmt.Sprintf(`DROP FUNCTION IF EXISTS %s()`, quoteIdent(dialect, c.InsertFunction))
}

// CreateDeleteFunctionSQL returns the statement installing the shared
// AFTER DELETE trigger function. Empty for dialects that inline the body.
func CreateDeleteFunctionSQL(dialect string, c Config) string {
	c = c.WithDefaults()
	if dialect != ddl.Postgres {
		return ""
	}
	return fmt.Sprintf(`CREATE OR REPLACE FUNCTION %s() RETURNS trigger AS $$
BEGIN
  DELETE FROM %s WHERE "id" = OLD."id";
  RETURN OLD;
END;
$$ LANGUAGE plpgsql`,
		quoteIdent(dialect, c.DeleteFunction),
		quoteIdent(dialect, c.PointerTable))
}

// DropDeleteFunctionSQL returns the statement removing the shared delete
// trigger function. Empty where no function was installed.
func DropDeleteFunctionSQL(dialect string, c Config) string {
	c = c.WithDefaults()
	if dialect != ddl.Postgres {
		return ""
	}
	return fmt.Sprintf(`DROP FUNCTION IF EXISTS %s()`, quoteIdent(dialect, c.DeleteFunction))
}

// CreateInsertTriggerSQL returns the statements installing the BEFORE INSERT
// trigger on table. The existing trigger, if any, is dropped first.
func CreateInsertTriggerSQL(dialect string, c Config, table string) string {
	c = c.WithDefaults()
	trigger := quoteIdent(dialect, c.InsertTriggerName(table))
	qtable := quoteIdent(dialect, table)

	switch dialect {
	case ddl.Postgres:
		return fmt.Sprintf(
			"DROP TRIGGER IF EXISTS %s ON %s;\n"+
				"CREATE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
			trigger, qtable, trigger, qtable, quoteIdent(dialect, c.InsertFunction))
	case ddl.MySQL:
		return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;
CREATE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW
BEGIN
  DECLARE pointed_table_id CHAR(36);
  SELECT %s INTO pointed_table_id FROM %s WHERE %s = %s;
  IF pointed_table_id IS NULL THEN
    SIGNAL SQLSTATE '45000' SET MESSAGE_TEXT = %s;
  END IF;
  INSERT IGNORE INTO %s (%s, %s) VALUES (NEW.%s, pointed_table_id);
END`,
			trigger, trigger, qtable,
			quoteIdent(dialect, "id"), quoteIdent(dialect, c.RegistryTable),
			quoteIdent(dialect, "table"), quoteString(table),
			quoteString("table "+table+" "+unregisteredMessage),
			quoteIdent(dialect, c.PointerTable),
			quoteIdent(dialect, "id"), quoteIdent(dialect, "table_id"),
			quoteIdent(dialect, "id"))
	case ddl.Sqlite:
		registry := quoteIdent(dialect, c.RegistryTable)
		return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;
CREATE TRIGGER %s BEFORE INSERT ON %s FOR EACH ROW
BEGIN
  SELECT RAISE(ABORT, %s)
    WHERE NOT EXISTS (SELECT 1 FROM %s WHERE "table" = %s);
  INSERT OR IGNORE INTO %s ("id", "table_id")
    SELECT NEW."id", "id" FROM %s WHERE "table" = %s;
END`,
			trigger, trigger, qtable,
			quoteString("table "+table+" "+unregisteredMessage),
			registry, quoteString(table),
			quoteIdent(dialect, c.PointerTable),
			registry, quoteString(table))
	default:
		return ""
	}
}

// DropInsertTriggerSQL returns the statement removing the BEFORE INSERT
// trigger from table.
func DropInsertTriggerSQL(dialect string, c Config, table string) string {
	c = c.WithDefaults()
	trigger := quoteIdent(dialect, c.InsertTriggerName(table))
	if dialect == ddl.Postgres {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, quoteIdent(dialect, table))
	}
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s", trigger)
}

// CreateDeleteTriggerSQL returns the statements installing the AFTER DELETE
// trigger on table. The existing trigger, if any, is dropped first.
func CreateDeleteTriggerSQL(dialect string, c Config, table string) string {
	c = c.WithDefaults()
	trigger := quoteIdent(dialect, c.DeleteTriggerName(table))
	qtable := quoteIdent(dialect, table)
	pointerTable := quoteIdent(dialect, c.PointerTable)

	switch dialect {
	case ddl.Postgres:
		return fmt.Sprintf(
			"DROP TRIGGER IF EXISTS %s ON %s;\n"+
				"CREATE TRIGGER %s AFTER DELETE ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
			trigger, qtable, trigger, qtable, quoteIdent(dialect, c.DeleteFunction))
	case ddl.MySQL:
		return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;
CREATE TRIGGER %s AFTER DELETE ON %s FOR EACH ROW
BEGIN
  DELETE FROM %s WHERE %s = OLD.%s;
END`,
			trigger, trigger, qtable,
			pointerTable, quoteIdent(dialect, "id"), quoteIdent(dialect, "id"))
	case ddl.Sqlite:
		return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;
CREATE TRIGGER %s AFTER DELETE ON %s FOR EACH ROW
BEGIN
  DELETE FROM %s WHERE "id" = OLD."id";
END`,
			trigger, trigger, qtable, pointerTable)
	default:
		return ""
	}
}

// DropDeleteTriggerSQL returns the statement removing the AFTER DELETE
// trigger from table.
func DropDeleteTriggerSQL(dialect string, c Config, table string) string {
	c = c.WithDefaults()
	trigger := quoteIdent(dialect, c.DeleteTriggerName(table))
	if dialect == ddl.Postgres {
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, quoteIdent(dialect, table))
	}
	return fmt.Sprintf("DROP TRIGGER IF EXISTS %s", trigger)
}
