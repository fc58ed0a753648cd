package pointers

import (
	"errors"
	"strings"
)

// ErrUnknownTable is returned when a table name has no registry entry.
var ErrUnknownTable = errors.New("table is not registered")

// ErrUnknownPointer is returned when a pointer id has no pointer store row.
var ErrUnknownPointer = errors.New("pointer does not exist")

// unregisteredMessage is the text every dialect's trigger body embeds when an
// insert hits a table with no registry entry. IsUnregisteredInsert keys on it.
const unregisteredMessage = "does not participate in the pointer abstraction"

// IsUnregisteredInsert reports whether err is the fail-closed trigger error
// raised when a row is inserted into a table with no registry entry. The
// error originates inside the database engine, so it is matched by the
// message text the trigger protocol plants in every dialect's trigger body.
func IsUnregisteredInsert(err error) bool {
	return err != nil && strings.Contains(err.Error(), unregisteredMessage)
}
