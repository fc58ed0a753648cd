// Package ddl defines the schema model shared by the migration planner:
// tables, columns, indexes, and foreign keys with their cascade policies.
package ddl

import "strings"

// Supported database dialects.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	Sqlite   = "sqlite"
)

// Column type constants. IdentifierType is the fixed-width 128-bit
// identifier; its physical type varies per dialect (UUID, CHAR(36), TEXT).
const (
	IdentifierType = "identifier"
	IntegerType    = "integer"
	BigintType     = "bigint"
	BooleanType    = "boolean"
	StringType     = "string"
	TextType       = "text"
	DatetimeType   = "datetime"
	TimestampType  = "timestamp"
	JSONType       = "json"
)

// ReferentialAction is a foreign key ON DELETE / ON UPDATE action.
type ReferentialAction string

const (
	Cascade  ReferentialAction = "CASCADE"
	SetNull  ReferentialAction = "SET NULL"
	Restrict ReferentialAction = "RESTRICT"
)

// RefVariant selects a fixed (on delete, on update) policy pair for a
// foreign key. The three variants form a closed set; schema authors choose
// one per reference column.
type RefVariant struct {
	OnDelete ReferentialAction
	OnUpdate ReferentialAction
}

var (
	// Strong deletes the referencing row when the referenced row goes away.
	Strong = RefVariant{OnDelete: Cascade, OnUpdate: Cascade}

	// Weak nulls out the reference when the referenced row goes away.
	// Weak reference columns must be nullable.
	Weak = RefVariant{OnDelete: SetNull, OnUpdate: Cascade}

	// Unbreakable refuses to delete the referenced row while a reference
	// exists.
	Unbreakable = RefVariant{OnDelete: Restrict, OnUpdate: Cascade}
)

// ForeignKey describes a real foreign key constraint on a column.
type ForeignKey struct {
	Table    string
	Column   string
	OnDelete ReferentialAction
	OnUpdate ReferentialAction
}

// ColumnDefinition represents a column in a database table.
type ColumnDefinition struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Length     *int        `json:"length"`
	Nullable   bool        `json:"nullable"`
	Default    *string     `json:"default"`
	Unique     bool        `json:"unique"`
	PrimaryKey bool        `json:"primary_key"`
	Index      bool        `json:"index"`
	ForeignKey *ForeignKey `json:"foreign_key"`
}

// IndexDefinition represents an index on a database table.
type IndexDefinition struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// Table represents a database table with its columns and indexes.
type Table struct {
	Name    string             `json:"name"`
	Columns []ColumnDefinition `json:"columns"`
	Indexes []IndexDefinition  `json:"indexes"`
}

// GenerateIndexName creates an index name from table and column names.
func GenerateIndexName(tableName string, columns []string) string {
	return "idx_" + tableName + "_" + strings.Join(columns, "_")
}
