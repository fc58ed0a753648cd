package migrate

// postgres_plan.go - PostgreSQL SQL generation

import (
	"fmt"
	"strings"

	"github.com/pointable/pointable/ddl"
)

// postgresType maps DDL types to PostgreSQL types.
func postgresType(col *ddl.ColumnDefinition) string {
	switch col.Type {
	case ddl.IdentifierType:
		return "UUID"
	case ddl.IntegerType:
		return "INTEGER"
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
		return "BOOLEAN"
	case ddl.DatetimeType, ddl.TimestampType:
		return "TIMESTAMP WITH TIME ZONE"
	case ddl.JSONType:
		return "JSONB"
	default:
		return "TEXT"
	}
}

// formatPostgresDefault formats a default value for PostgreSQL.
func formatPostgresDefault(col *ddl.ColumnDefinition) string {
	defaultVal := *col.Default
	switch col.Type {
	case ddl.BooleanType:
		if defaultVal == "true" {
			return "TRUE"
		}
		return "FALSE"
	case ddl.IntegerType, ddl.BigintType:
		return defaultVal
	default:
		return fmt.Sprintf("'%s'", escapeSQLString(defaultVal))
	}
}

// generatePostgresColumnDef generates one column definition, including any
// inline foreign key constraint.
func generatePostgresColumnDef(col *ddl.ColumnDefinition) string {
	var parts []string

	parts = append(parts, fmt.Sprintf(`"%s"`, col.Name))
	parts = append(parts, postgresType(col))

	if !col.Nullable && !col.PrimaryKey {
		parts = append(parts, "NOT NULL")
	}
	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.Default != nil {
		parts = append(parts, "DEFAULT", formatPostgresDefault(col))
	}
	if fk := col.ForeignKey; fk != nil {
		parts = append(parts, fmt.Sprintf(`REFERENCES "%s" ("%s") ON DELETE %s ON UPDATE %s`,
			fk.Table, fk.Column, fk.OnDelete, fk.OnUpdate))
	}

	return strings.Join(parts, " ")
}

// generatePostgresCreateTable generates CREATE TABLE plus index statements.
func generatePostgresCreateTable(table *ddl.Table, ifNotExists bool) string {
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
		sb.WriteString(generatePostgresColumnDef(&col))
	}
	sb.WriteString(")")

	var indexStatements []string
	for _, idx := range table.Indexes {
		indexStatements = append(indexStatements, generatePostgresIndexStatement(table.Name, &idx, ifNotExists))
	}

	result := sb.String()
	if len(indexStatements) > 0 {
		result += ";\n" + strings.Join(indexStatements, ";\n")
	}
	return result
}

// generatePostgresIndexStatement generates a CREATE INDEX statement.
func generatePostgresIndexStatement(tableName string, idx *ddl.IndexDefinition, ifNotExists bool) string {
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
