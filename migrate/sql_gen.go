package migrate

import (
	"fmt"
	"strings"

	"github.com/pointable/pointable/ddl"
	"github.com/pointable/pointable/ident"
	"github.com/pointable/pointable/pointers"
)

// createTableSQL dispatches CREATE TABLE generation to the dialect.
func createTableSQL(dialect string, table *ddl.Table, ifNotExists bool) string {
	switch dialect {
	case ddl.Postgres:
		return generatePostgresCreateTable(table, ifNotExists)
	case ddl.MySQL:
		return generateMySQLCreateTable(table, ifNotExists)
	case ddl.Sqlite:
		return generateSQLiteCreateTable(table, ifNotExists)
	default:
		return ""
	}
}

// dropTableSQL dispatches DROP TABLE generation to the dialect.
func dropTableSQL(dialect, name string, ifExists bool) string {
	exists := ""
	if ifExists {
		exists = "IF EXISTS "
	}
	if dialect == ddl.MySQL {
		return fmt.Sprintf("DROP TABLE %s`%s`", exists, name)
	}
	return fmt.Sprintf(`DROP TABLE %s"%s"`, exists, name)
}

// dropIndexSQL generates a DROP INDEX IF EXISTS statement. MySQL has no
// standalone "if exists" index drop and drops indexes with their table, so
// it contributes nothing.
func dropIndexSQL(dialect, tableName, indexName string) string {
	switch dialect {
	case ddl.Postgres, ddl.Sqlite:
		return fmt.Sprintf(`DROP INDEX IF EXISTS "%s"`, indexName)
	default:
		return ""
	}
}

// insertTableRecordSQL generates the registry upsert for a table record.
// The id never drifts: the filtered SELECT contributes no row when the name
// is already registered, so the registry's own insert trigger never fires
// for a discarded candidate id. The conflict clause stays on as the
// serialization point under concurrent first-time registration.
func insertTableRecordSQL(dialect string, c pointers.Config, id ident.ID, name string) string {
	escaped := escapeSQLString(name)
	switch dialect {
	case ddl.Postgres, ddl.Sqlite:
		return fmt.Sprintf(`INSERT INTO "%s" ("id", "table") SELECT '%s', '%s' WHERE NOT EXISTS (SELECT 1 FROM "%s" WHERE "table" = '%s') ON CONFLICT ("table") DO NOTHING`,
			c.RegistryTable, id, escaped, c.RegistryTable, escaped)
	case ddl.MySQL:
		return fmt.Sprintf("INSERT IGNORE INTO `%s` (`id`, `table`) SELECT '%s', '%s' FROM DUAL WHERE NOT EXISTS (SELECT 1 FROM `%s` WHERE `table` = '%s')",
			c.RegistryTable, id, escaped, c.RegistryTable, escaped)
	default:
		return ""
	}
}

// deleteTableRecordSQL generates the registry delete for a table record.
func deleteTableRecordSQL(dialect string, c pointers.Config, id ident.ID) string {
	if dialect == ddl.MySQL {
		return fmt.Sprintf("DELETE FROM `%s` WHERE `id` = '%s'", c.RegistryTable, id)
	}
	return fmt.Sprintf(`DELETE FROM "%s" WHERE "id" = '%s'`, c.RegistryTable, id)
}

// escapeSQLString escapes single quotes in a string literal.
func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
