package migrate

// mysql_plan.go - MySQL SQL generation
//
// MySQL ignores inline REFERENCES clauses on column definitions, so foreign
// keys are emitted as table-level constraints. Indexes are emitted inline as
// KEY clauses, which keeps CREATE TABLE IF NOT EXISTS idempotent (MySQL has
// no CREATE INDEX IF NOT EXISTS).

import (
	"fmt"
	"strings"

	"github.com/pointable/pointable/ddl"
)

// mysqlType maps DDL types to MySQL types.
func mysqlType(col *ddl.ColumnDefinition) string {
	switch col.Type {
	case ddl.IdentifierType:
		return "CHAR(36)"
	case ddl.IntegerType:
		return "INT"
	case ddl.BigintType:
		return "BIGINT"
	case ddl.StringType:
		length := 255
		if col.Length != nil {
			length = *col.Length
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	case ddl.TextType:
		return "TEXT"
	case ddl.BooleanType:
		return "TINYINT(1)"
	case ddl.DatetimeType:
		return "DATETIME"
	case ddl.TimestampType:
		return "TIMESTAMP"
	case ddl.JSONType:
		return "JSON"
	default:
		return "TEXT"
	}
}

// formatMySQLDefault formats a default value for MySQL.
func formatMySQLDefault(col *ddl.ColumnDefinition) string {
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

// generateMySQLColumnDef generates one column definition.
func generateMySQLColumnDef(col *ddl.ColumnDefinition) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("`%s`", col.Name))
	parts = append(parts, mysqlType(col))

	if !col.Nullable && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT", formatMySQLDefault(col))
	}

	return strings.Join(parts, " ")
}

// generateMySQLCreateTable generates a CREATE TABLE statement with inline
// indexes and table-level foreign key constraints.
func generateMySQLCreateTable(table *ddl.Table, ifNotExists bool) string {
	var sb strings.Builder

	sb.WriteString("CREATE TABLE ")
	if ifNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(fmt.Sprintf("`%s` (", table.Name))

	var clauses []string
	for _, col := range table.Columns {
		clauses = append(clauses, generateMySQLColumnDef(&col))
	}
	for _, idx := range table.Indexes {
		clauses = append(clauses, generateMySQLIndexClause(&idx))
	}
	for _, col := range table.Columns {
		if fk := col.ForeignKey; fk != nil {
			clauses = append(clauses, fmt.Sprintf(
				"FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`) ON DELETE %s ON UPDATE %s",
				col.Name, fk.Table, fk.Column, fk.OnDelete, fk.OnUpdate))
		}
	}

	sb.WriteString(strings.Join(clauses, ", "))
	sb.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	return sb.String()
}

// generateMySQLIndexClause generates an inline KEY clause.
func generateMySQLIndexClause(idx *ddl.IndexDefinition) string {
	cols := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		cols[i] = fmt.Sprintf("`%s`", col)
	}
	if idx.Unique {
		return fmt.Sprintf("UNIQUE KEY `%s` (%s)", idx.Name, strings.Join(cols, ", "))
	}
	return fmt.Sprintf("KEY `%s` (%s)", idx.Name, strings.Join(cols, ", "))
}
