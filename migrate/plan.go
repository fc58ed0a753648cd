// Package migrate builds and runs migration plans for the pointer
// abstraction: installing the central tables and trigger machinery,
// registering pointable tables, and attaching mixin tables.
package migrate

import (
	"fmt"
	"strings"

	"github.com/pointable/pointable/ddl"
	"github.com/pointable/pointable/ident"
	"github.com/pointable/pointable/pointers"
)

// Direction selects whether an init migration installs or tears down.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Dialect constants, re-exported for callers that only import migrate.
const (
	Sqlite   = ddl.Sqlite
	Postgres = ddl.Postgres
	MySQL    = ddl.MySQL
)

// Schema is the set of tables a plan has created so far.
type Schema struct {
	Tables map[string]ddl.Table `json:"tables"`
}

// MigrationInstructions holds the SQL rendition of one migration per
// dialect. Statements are separated by ";\n" and executed as one batch.
type MigrationInstructions struct {
	Sqlite   string `json:"sqlite"`
	Postgres string `json:"postgres"`
	MySQL    string `json:"mysql"`
}

// Migration is one named, ordered migration step.
type Migration struct {
	Instructions MigrationInstructions `json:"instructions"`
	Name         string                `json:"name"`
}

// MigrationPlan accumulates migrations. Names must be unique within a plan;
// the runner applies migrations in plan order and tracks them by name.
type MigrationPlan struct {
	Schema     Schema      `json:"schema"`
	Migrations []Migration `json:"migrations"`

	conf pointers.Config
}

// NewPlan returns an empty plan using the given configuration. Config
// defaults are resolved here, once, and every subsequent operation on the
// plan uses the resolved names.
func NewPlan(conf pointers.Config) *MigrationPlan {
	return &MigrationPlan{
		Schema: Schema{Tables: make(map[string]ddl.Table)},
		conf:   conf.WithDefaults(),
	}
}

// Config returns the plan's resolved configuration.
func (m *MigrationPlan) Config() pointers.Config {
	return m.conf
}

// joinStatements joins non-empty statements with ";\n". Dialects that have
// no rendition of a step contribute an empty string and drop out here.
func joinStatements(stmts ...string) string {
	parts := stmts[:0:0]
	for _, s := range stmts {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ";\n")
}

func (m *MigrationPlan) append(name string, sqlite, postgres, mysql []string) {
	m.Migrations = append(m.Migrations, Migration{
		Name: name,
		Instructions: MigrationInstructions{
			Sqlite:   joinStatements(sqlite...),
			Postgres: joinStatements(postgres...),
			MySQL:    joinStatements(mysql...),
		},
	})
}

// forEachDialect builds one instruction set per dialect from the same step
// generator.
func (m *MigrationPlan) appendPerDialect(name string, steps func(dialect string) []string) {
	m.append(name, steps(ddl.Sqlite), steps(ddl.Postgres), steps(ddl.MySQL))
}

// InitPointers appends the migration that installs (Up) or tears down
// (Down) the whole abstraction: the registry and pointer tables, their
// indexes, the trigger functions, and the registry table's own registration
// and triggers. Every step uses an "if exists" / "if not exists" or
// drop-then-create form, so the migration is safely re-runnable after a
// partial failure.
func (m *MigrationPlan) InitPointers(dir Direction) (*MigrationPlan, error) {
	c := m.conf
	switch dir {
	case Up:
		registry := registrySchemaTable(c)
		store := pointerSchemaTable(c)
		m.Schema.Tables[registry.Name] = *registry
		m.Schema.Tables[store.Name] = *store

		m.appendPerDialect("init_pointers", func(dialect string) []string {
			return []string{
				createTableSQL(dialect, registry, true),
				createTableSQL(dialect, store, true),
				insertTableRecordSQL(dialect, c, pointers.RegistryID, c.RegistryTable),
				pointers.CreateInsertFunctionSQL(dialect, c),
				pointers.CreateDeleteFunctionSQL(dialect, c),
				pointers.CreateInsertTriggerSQL(dialect, c, c.RegistryTable),
				pointers.CreateDeleteTriggerSQL(dialect, c, c.RegistryTable),
			}
		})
	case Down:
		delete(m.Schema.Tables, c.RegistryTable)
		delete(m.Schema.Tables, c.PointerTable)

		m.appendPerDialect("deinit_pointers", func(dialect string) []string {
			return []string{
				pointers.DropDeleteTriggerSQL(dialect, c, c.RegistryTable),
				pointers.DropInsertTriggerSQL(dialect, c, c.RegistryTable),
				pointers.DropDeleteFunctionSQL(dialect, c),
				pointers.DropInsertFunctionSQL(dialect, c),
				dropIndexSQL(dialect, c.PointerTable, ddl.GenerateIndexName(c.PointerTable, []string{"table_id"})),
				dropIndexSQL(dialect, c.RegistryTable, ddl.GenerateIndexName(c.RegistryTable, []string{"table"})),
				dropTableSQL(dialect, c.PointerTable, true),
				dropTableSQL(dialect, c.RegistryTable, true),
			}
		})
	default:
		return nil, fmt.Errorf("unknown direction: %q", dir)
	}
	return m, nil
}

// registrySchemaTable builds the registry table definition.
func registrySchemaTable(c pointers.Config) *ddl.Table {
	tb := ddl.MakeTable(c.RegistryTable)
	tb.Identifier("id").PrimaryKey()
	tb.String("table").Unique()
	return tb.Build()
}

// pointerSchemaTable builds the pointer store table definition. table_id is
// a strong reference to the registry: deregistering a table removes every
// pointer it owned.
func pointerSchemaTable(c pointers.Config) *ddl.Table {
	tb := ddl.MakeTable(c.PointerTable)
	tb.Identifier("id").PrimaryKey()
	tb.Identifier("table_id").References(c.RegistryTable, "id", ddl.Strong).Indexed()
	return tb.Build()
}

// PointableBuilder wraps a table builder with the pointer-specific column
// generators. The pointer table name comes from the plan's configuration,
// resolved once at plan construction.
type PointableBuilder struct {
	*ddl.TableBuilder
	conf pointers.Config
}

// AddPointerPK adds the identifier primary key column shared with the
// pointer store. Pointable tables get one automatically.
func (b *PointableBuilder) AddPointerPK() *ddl.IdentifierColumnBuilder {
	return b.Identifier("id").PrimaryKey()
}

// AddPointerRefPK adds an identifier primary key that is also a strong
// reference to the pointer store: the row dies with its pointer. Mixin
// tables get one automatically.
func (b *PointableBuilder) AddPointerRefPK() *ddl.IdentifierColumnBuilder {
	return b.Identifier("id").PrimaryKey().References(b.conf.PointerTable, "id", ddl.Strong)
}

// Pointer adds a foreign key column targeting the pointer store with the
// given variant's cascade policy.
func (b *PointableBuilder) Pointer(name string, v ddl.RefVariant) *ddl.IdentifierColumnBuilder {
	return b.Identifier(name).References(b.conf.PointerTable, "id", v)
}

// StrongPointer adds a pointer column that cascades deletion of the
// referenced row to the referencing row.
func (b *PointableBuilder) StrongPointer(name string) *ddl.IdentifierColumnBuilder {
	return b.Pointer(name, ddl.Strong)
}

// WeakPointer adds a nullable pointer column that is nulled out when the
// referenced row goes away.
func (b *PointableBuilder) WeakPointer(name string) *ddl.IdentifierColumnBuilder {
	return b.Pointer(name, ddl.Weak)
}

// UnbreakablePointer adds a pointer column that refuses deletion of the
// referenced row while the reference exists.
func (b *PointableBuilder) UnbreakablePointer(name string) *ddl.IdentifierColumnBuilder {
	return b.Pointer(name, ddl.Unbreakable)
}

func (m *MigrationPlan) buildTable(name string, prepare func(*PointableBuilder), fn func(*PointableBuilder) error) (*ddl.Table, error) {
	if _, exists := m.Schema.Tables[name]; exists {
		return nil, fmt.Errorf("table %q already exists in schema", name)
	}
	if m.Schema.Tables == nil {
		m.Schema.Tables = make(map[string]ddl.Table)
	}

	pb := &PointableBuilder{TableBuilder: ddl.MakeTable(name), conf: m.conf}
	if prepare != nil {
		prepare(pb)
	}
	if fn != nil {
		if err := fn(pb); err != nil {
			return nil, err
		}
	}

	table := pb.Build()
	m.Schema.Tables[name] = *table
	return table, nil
}

// AddPointableTable appends the migration registering a participating
// table: insert its registry record under the caller-chosen stable id,
// create the physical table with the identifier primary key, and install
// the insert and delete triggers.
func (m *MigrationPlan) AddPointableTable(name string, id ident.ID, fn func(*PointableBuilder) error) (*MigrationPlan, error) {
	if id.IsZero() {
		return nil, fmt.Errorf("pointable table %q needs a non-zero id", name)
	}
	table, err := m.buildTable(name, func(pb *PointableBuilder) { pb.AddPointerPK() }, fn)
	if err != nil {
		return nil, err
	}

	c := m.conf
	m.appendPerDialect(fmt.Sprintf("create_%s_pointable_table", name), func(dialect string) []string {
		return []string{
			insertTableRecordSQL(dialect, c, id, name),
			createTableSQL(dialect, table, false),
			pointers.CreateInsertTriggerSQL(dialect, c, name),
			pointers.CreateDeleteTriggerSQL(dialect, c, name),
		}
	})
	return m, nil
}

// DropPointableTable appends the migration de-registering a participating
// table: drop its triggers, delete its registry record (which cascades away
// every pointer it owned), and drop the physical table.
func (m *MigrationPlan) DropPointableTable(name string, id ident.ID) (*MigrationPlan, error) {
	if _, ok := m.Schema.Tables[name]; !ok {
		return nil, fmt.Errorf("table %q not found in schema", name)
	}
	delete(m.Schema.Tables, name)

	c := m.conf
	m.appendPerDialect(fmt.Sprintf("drop_%s_pointable_table", name), func(dialect string) []string {
		return []string{
			pointers.DropDeleteTriggerSQL(dialect, c, name),
			pointers.DropInsertTriggerSQL(dialect, c, name),
			deleteTableRecordSQL(dialect, c, id),
			dropTableSQL(dialect, name, false),
		}
	})
	return m, nil
}

// AddMixinTable appends the migration creating a mixin table: a side table
// whose primary key is a strong reference to the pointer store, carrying no
// trigger or registry entry of its own.
func (m *MigrationPlan) AddMixinTable(name string, fn func(*PointableBuilder) error) (*MigrationPlan, error) {
	table, err := m.buildTable(name, func(pb *PointableBuilder) { pb.AddPointerRefPK() }, fn)
	if err != nil {
		return nil, err
	}

	m.appendPerDialect(fmt.Sprintf("create_%s_mixin_table", name), func(dialect string) []string {
		return []string{createTableSQL(dialect, table, false)}
	})
	return m, nil
}

// DropMixinTable appends the migration dropping a mixin table.
func (m *MigrationPlan) DropMixinTable(name string) (*MigrationPlan, error) {
	if _, ok := m.Schema.Tables[name]; !ok {
		return nil, fmt.Errorf("table %q not found in schema", name)
	}
	delete(m.Schema.Tables, name)
	m.appendPerDialect(fmt.Sprintf("drop_%s_mixin_table", name), func(dialect string) []string {
		return []string{dropTableSQL(dialect, name, false)}
	})
	return m, nil
}

// AddEmptyTable appends the migration creating an ordinary table with no
// automatic columns. The builder still offers the pointer column
// generators, so ordinary tables can reference the pointer store.
func (m *MigrationPlan) AddEmptyTable(name string, fn func(*PointableBuilder) error) (*MigrationPlan, error) {
	table, err := m.buildTable(name, nil, fn)
	if err != nil {
		return nil, err
	}
	m.appendPerDialect(fmt.Sprintf("create_%s_table", name), func(dialect string) []string {
		return []string{createTableSQL(dialect, table, false)}
	})
	return m, nil
}

// DropTable appends the migration dropping an ordinary table.
func (m *MigrationPlan) DropTable(name string) (*MigrationPlan, error) {
	if _, ok := m.Schema.Tables[name]; !ok {
		return nil, fmt.Errorf("table %q not found in schema", name)
	}
	delete(m.Schema.Tables, name)
	m.appendPerDialect(fmt.Sprintf("drop_%s_table", name), func(dialect string) []string {
		return []string{dropTableSQL(dialect, name, false)}
	})
	return m, nil
}

// InsertTableRecord appends a migration that upserts a registry record
// directly, without touching the physical table. Useful when adopting a
// table that already exists.
func (m *MigrationPlan) InsertTableRecord(id ident.ID, name string) *MigrationPlan {
	c := m.conf
	m.appendPerDialect(fmt.Sprintf("insert_table_record_%s", name), func(dialect string) []string {
		return []string{insertTableRecordSQL(dialect, c, id, name)}
	})
	return m
}

// DeleteTableRecord appends a migration that deletes a registry record
// directly.
func (m *MigrationPlan) DeleteTableRecord(id ident.ID) *MigrationPlan {
	c := m.conf
	m.appendPerDialect(fmt.Sprintf("delete_table_record_%s", id), func(dialect string) []string {
		return []string{deleteTableRecordSQL(dialect, c, id)}
	})
	return m
}
