// Package pointers implements the pointer abstraction's runtime pieces: the
// table registry and pointer store, the trigger protocol's SQL, and the
// process-wide configuration both share.
//
// The central "pointers" table holds one row per row of every participating
// table, tagged with the owning table's registry id. Pointer rows are created
// exclusively by database-side triggers, never by application code.
package pointers

import "github.com/pointable/pointable/ident"

// Default names used when a Config field is left empty.
const (
	DefaultPointerTable   = "pointers"
	DefaultRegistryTable  = "pointer_tables"
	DefaultInsertFunction = "insert_pointer"
	DefaultInsertPrefix   = "insert_pointer_"
	DefaultDeleteFunction = "delete_pointer"
	DefaultDeletePrefix   = "delete_pointer_"
)

// RegistryID is the well-known identifier under which the registry table is
// registered as a participating table of its own abstraction. It carries a
// zero timestamp so it sorts before every generated identifier.
var RegistryID = ident.MustCast("00000000-0000-7000-8000-000000000001")

// Config holds the names the abstraction installs into the database. Resolve
// it once, at plan or store construction time, via WithDefaults; the zero
// value with WithDefaults applied is the standard installation.
type Config struct {
	// PointerTable is the central table holding (id, table_id) rows.
	PointerTable string

	// RegistryTable maps participating table names to stable identifiers.
	RegistryTable string

	// InsertFunction is the shared BEFORE INSERT trigger function name.
	InsertFunction string

	// InsertPrefix prefixes per-table insert trigger names.
	InsertPrefix string

	// DeleteFunction is the shared AFTER DELETE trigger function name.
	DeleteFunction string

	// DeletePrefix prefixes per-table delete trigger names.
	DeletePrefix string
}

// DefaultConfig returns the standard installation names.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with every empty field replaced by its
// default.
func (c Config) WithDefaults() Config {
	if c.PointerTable == "" {
		c.PointerTable = DefaultPointerTable
	}
	if c.RegistryTable == "" {
		c.RegistryTable = DefaultRegistryTable
	}
	if c.InsertFunction == "" {
		c.InsertFunction = DefaultInsertFunction
	}
	if c.InsertPrefix == "" {
		c.InsertPrefix = DefaultInsertPrefix
	}
	if c.DeleteFunction == "" {
		c.DeleteFunction = DefaultDeleteFunction
	}
	if c.DeletePrefix == "" {
		c.DeletePrefix = DefaultDeletePrefix
	}
	return c
}

// InsertTriggerName returns the per-table insert trigger name.
func (c Config) InsertTriggerName(table string) string {
	return c.InsertPrefix + table
}

// DeleteTriggerName returns the per-table delete trigger name.
func (c Config) DeleteTriggerName(table string) string {
	return c.DeletePrefix + table
}
