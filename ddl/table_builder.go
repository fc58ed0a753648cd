package ddl

import "strconv"

// TableBuilder owns the table under construction and provides methods to
// add columns and indexes.
type TableBuilder struct {
	table *Table
}

// MakeTable constructs a new table with no columns.
func MakeTable(name string) *TableBuilder {
	return &TableBuilder{
		table: &Table{
			Name:    name,
			Columns: []ColumnDefinition{},
			Indexes: []IndexDefinition{},
		},
	}
}

// Build returns the constructed table.
func (tb *TableBuilder) Build() *Table {
	return tb.table
}

// Name returns the name of the table under construction.
func (tb *TableBuilder) Name() string {
	return tb.table.Name
}

func (tb *TableBuilder) addColumn(col ColumnDefinition) *ColumnDefinition {
	tb.table.Columns = append(tb.table.Columns, col)
	return &tb.table.Columns[len(tb.table.Columns)-1]
}

func (tb *TableBuilder) addIndex(unique bool, columns ...string) {
	tb.table.Indexes = append(tb.table.Indexes, IndexDefinition{
		Name:    GenerateIndexName(tb.table.Name, columns),
		Columns: columns,
		Unique:  unique,
	})
}

// AddIndex adds a composite index on the specified columns.
func (tb *TableBuilder) AddIndex(columns ...string) *TableBuilder {
	tb.addIndex(false, columns...)
	return tb
}

// AddUniqueIndex adds a unique composite index on the specified columns.
func (tb *TableBuilder) AddUniqueIndex(columns ...string) *TableBuilder {
	tb.addIndex(true, columns...)
	return tb
}

// --- Column type methods ---

// Identifier adds a fixed-width identifier column.
func (tb *TableBuilder) Identifier(name string) *IdentifierColumnBuilder {
	return &IdentifierColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: IdentifierType}),
	}
}

// Integer adds a 32-bit integer column.
func (tb *TableBuilder) Integer(name string) *IntColumnBuilder {
	return &IntColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: IntegerType}),
	}
}

// Bigint adds a 64-bit integer column.
func (tb *TableBuilder) Bigint(name string) *IntColumnBuilder {
	return &IntColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: BigintType}),
	}
}

// Bool adds a boolean column.
func (tb *TableBuilder) Bool(name string) *BoolColumnBuilder {
	return &BoolColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: BooleanType}),
	}
}

// String adds a string column with VARCHAR(255).
func (tb *TableBuilder) String(name string) *StringColumnBuilder {
	length := 255
	return &StringColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: StringType, Length: &length}),
	}
}

// Varchar adds a string column with the specified length.
func (tb *TableBuilder) Varchar(name string, length int) *StringColumnBuilder {
	return &StringColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: StringType, Length: &length}),
	}
}

// Text adds an unlimited text column.
func (tb *TableBuilder) Text(name string) *StringColumnBuilder {
	return &StringColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: TextType}),
	}
}

// Datetime adds a datetime column (with timezone where supported).
func (tb *TableBuilder) Datetime(name string) *TimeColumnBuilder {
	return &TimeColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: DatetimeType}),
	}
}

// Timestamp adds a timestamp column (with timezone where supported).
func (tb *TableBuilder) Timestamp(name string) *TimeColumnBuilder {
	return &TimeColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: TimestampType}),
	}
}

// JSON adds a JSON column.
func (tb *TableBuilder) JSON(name string) *StringColumnBuilder {
	return &StringColumnBuilder{
		tableBuilder: tb,
		col:          tb.addColumn(ColumnDefinition{Name: name, Type: JSONType}),
	}
}

// --- IdentifierColumnBuilder ---

// IdentifierColumnBuilder builds a fixed-width identifier column. It is the
// only column builder that can carry a foreign key, since references within
// the pointer abstraction are always identifier-to-identifier.
type IdentifierColumnBuilder struct {
	tableBuilder *TableBuilder
	col          *ColumnDefinition
}

// PrimaryKey marks the column as the primary key.
func (b *IdentifierColumnBuilder) PrimaryKey() *IdentifierColumnBuilder {
	b.col.PrimaryKey = true
	return b
}

// Nullable marks the column as nullable.
func (b *IdentifierColumnBuilder) Nullable() *IdentifierColumnBuilder {
	b.col.Nullable = true
	return b
}

// Unique marks the column as unique and adds a unique index.
func (b *IdentifierColumnBuilder) Unique() *IdentifierColumnBuilder {
	b.col.Unique = true
	b.tableBuilder.addIndex(true, b.col.Name)
	return b
}

// Indexed adds a non-unique index on this column.
func (b *IdentifierColumnBuilder) Indexed() *IdentifierColumnBuilder {
	b.col.Index = true
	b.tableBuilder.addIndex(false, b.col.Name)
	return b
}

// References adds a real foreign key constraint to the named table and
// column, with the cascade policy selected by the variant.
func (b *IdentifierColumnBuilder) References(table, column string, v RefVariant) *IdentifierColumnBuilder {
	b.col.ForeignKey = &ForeignKey{
		Table:    table,
		Column:   column,
		OnDelete: v.OnDelete,
		OnUpdate: v.OnUpdate,
	}
	if v.OnDelete == SetNull {
		b.col.Nullable = true
	}
	return b
}

// --- IntColumnBuilder ---

// IntColumnBuilder builds integer and bigint columns.
type IntColumnBuilder struct {
	tableBuilder *TableBuilder
	col          *ColumnDefinition
}

// Nullable marks the column as nullable.
func (b *IntColumnBuilder) Nullable() *IntColumnBuilder {
	b.col.Nullable = true
	return b
}

// Unique marks the column as unique and adds a unique index.
func (b *IntColumnBuilder) Unique() *IntColumnBuilder {
	b.col.Unique = true
	b.tableBuilder.addIndex(true, b.col.Name)
	return b
}

// Indexed adds a non-unique index on this column.
func (b *IntColumnBuilder) Indexed() *IntColumnBuilder {
	b.col.Index = true
	b.tableBuilder.addIndex(false, b.col.Name)
	return b
}

// Default sets the default value.
func (b *IntColumnBuilder) Default(v int64) *IntColumnBuilder {
	s := strconv.FormatInt(v, 10)
	b.col.Default = &s
	return b
}

// --- BoolColumnBuilder ---

// BoolColumnBuilder builds boolean columns.
type BoolColumnBuilder struct {
	tableBuilder *TableBuilder
	col          *ColumnDefinition
}

// Nullable marks the column as nullable.
func (b *BoolColumnBuilder) Nullable() *BoolColumnBuilder {
	b.col.Nullable = true
	return b
}

// Default sets the default value.
func (b *BoolColumnBuilder) Default(v bool) *BoolColumnBuilder {
	s := strconv.FormatBool(v)
	b.col.Default = &s
	return b
}

// --- StringColumnBuilder ---

// StringColumnBuilder builds string, text, and JSON columns.
type StringColumnBuilder struct {
	tableBuilder *TableBuilder
	col          *ColumnDefinition
}

// Nullable marks the column as nullable.
func (b *StringColumnBuilder) Nullable() *StringColumnBuilder {
	b.col.Nullable = true
	return b
}

// Unique marks the column as unique and adds a unique index.
func (b *StringColumnBuilder) Unique() *StringColumnBuilder {
	b.col.Unique = true
	b.tableBuilder.addIndex(true, b.col.Name)
	return b
}

// Indexed adds a non-unique index on this column.
func (b *StringColumnBuilder) Indexed() *StringColumnBuilder {
	b.col.Index = true
	b.tableBuilder.addIndex(false, b.col.Name)
	return b
}

// Default sets the default value. Not meaningful for text and JSON columns
// on MySQL.
func (b *StringColumnBuilder) Default(v string) *StringColumnBuilder {
	b.col.Default = &v
	return b
}

// --- TimeColumnBuilder ---

// TimeColumnBuilder builds datetime and timestamp columns.
type TimeColumnBuilder struct {
	tableBuilder *TableBuilder
	col          *ColumnDefinition
}

// Nullable marks the column as nullable.
func (b *TimeColumnBuilder) Nullable() *TimeColumnBuilder {
	b.col.Nullable = true
	return b
}

// Indexed adds a non-unique index on this column.
func (b *TimeColumnBuilder) Indexed() *TimeColumnBuilder {
	b.col.Index = true
	b.tableBuilder.addIndex(false, b.col.Name)
	return b
}

// Default sets the default value, e.g. "CURRENT_TIMESTAMP".
func (b *TimeColumnBuilder) Default(v string) *TimeColumnBuilder {
	b.col.Default = &v
	return b
}
