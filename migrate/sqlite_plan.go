package migrate

// sqlite_plan.go - SQLite SQL generation
//
// Foreign key actions require PRAGMA foreign_keys = ON on the connection;
// that is the opener's responsibility, not the generated SQL's.

import (
	"fmt"
	"strings"

	"github.com/pointable/pointable/ddl"
)

// sqliteType maps DDL types to SQLite storage classes.
func sqliteType(col *ddl.ColumnDefinition) string {
	switch col.Type {
	case ddl.IntegerType, ddl.BigintType, ddl.BooleanType:
		return "INTEGER"
	default:
		// Identifiers, strings, datetimes, and JSON all store as TEXT.
		return "TEXT"
	}
}

// formatSQLiteDefault formats a default value for SQLite.
func formatSQLiteDefault(col *ddl.ColumnDefinition) string {
	defaultVal := *col.Default
	switch col.Type {
	case ddl.BooleanType:
		if defaultVal == "true" {
			return "1"
		}
		return "0"
	case ddl.IntegerType, ddl.BigintType:
		return defaultVal
	default:
		return fmt.Sprintf("'%s'", escapeSQLString(defaultVal))
	}
}

// generateSQLiteColumnDef generates one column definition, including any
// inline foreign key constraint.
func generateSQLiteColumnDef(col *ddl.ColumnDefinition) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(`"%s"`, col.Name))
	parts = append(parts, sqliteType(col))

	if !col.Nullable && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT", formatSQLiteDefault(col))
	}
	if fk := col.ForeignKey; fk != nil {
		parts = append(parts, fmt.Sprintf(`REFERENCES "%s" ("%s") ON DELETE %s ON UPDATE %s`,
			fk.Table, fk.Column, fk.OnDelete, fk.OnUpdate))
	}

	return strings.Join(parts, " ")
}

// generateSQLiteCreateTable generates CREATE TABLE plus index statements.
func generateSQLiteCreateTable(table *ddl.Table, ifNotExists bool) string {
	var sb strings.Builder

	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(fmt.Sprintf(`"%s" (`, table.Name))

	for i, col := range table.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(generateSQLiteColumnDef(&col))
	}
	sb.WriteString(")")

	var indexStatements []string
	for _, idx := range table.Indexes {
		indexStatements = append(indexStatements, generateSQLiteIndexStatement(table.Name, &idx, ifNotExists))
	}

	result := sb.String()
	if len(indexStatements) > 0 {
		result += ";\n" + strings.Join(indexStatements, ";\n")
	}
	return result
}

// generateSQLiteIndexStatement generates a CREATE INDEX statement.
func generateSQLiteIndexStatement(tableName string, idx *ddl.IndexDefinition, ifNotExists bool) string {
	var sb strings.Builder

	if idx.Unique {
		sb.WriteString("CREATE UNIQUE INDEX ")
	} else {
		sb.WriteString("CREATE INDEX ")
	}
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(fmt.Sprintf(`"%s" ON "%s" (`, idx.Name, tableName))
	for i, col := range idx.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf(`"%s"`, col))
	}
	sb.WriteString(")")
	return sb.String()
}
