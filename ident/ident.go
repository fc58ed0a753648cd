// Package ident implements the fixed-width, time-sortable identifier used as
// the primary key throughout the pointer abstraction.
//
// An ID is 128 bits wide: 48 bits of millisecond-precision timestamp in the
// most significant bytes, followed by 80 bits of randomness. Values compare
// in creation order (for distinct timestamps) both as raw bytes and in their
// canonical textual form. The layout matches UUID version 7, so the database
// can store identifiers in a native UUID column where one exists.
package ident

import (
	"bytes"
	"crypto/rand"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidIdentifier is returned when a value is not a syntactically
// well-formed identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ID is a 128-bit identifier. The zero value is not a valid identifier.
type ID uuid.UUID

// Generate returns a fresh identifier stamped with the current time.
// It is safe for concurrent callers; uniqueness comes from the random
// payload, not from any global sequencing.
func Generate() ID {
	return GenerateAt(time.Now())
}

// GenerateAt returns a fresh identifier stamped with the given time.
// Identifiers generated at later times sort after identifiers generated
// at earlier times, at millisecond granularity.
func GenerateAt(t time.Time) ID {
	var id ID

	ms := uint64(t.UnixMilli())
	id[0] = byte(ms >> 40)
	id[1] = byte(ms >> 32)
	id[2] = byte(ms >> 24)
	id[3] = byte(ms >> 16)
	id[4] = byte(ms >> 8)
	id[5] = byte(ms)

	if _, err := rand.Read(id[6:]); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}

	// Stamp the UUIDv7 version and RFC 4122 variant bits so the value is a
	// structurally valid UUID everywhere it travels.
	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80

	return id
}

// Cast validates that value is a well-formed identifier and returns it.
// It accepts the canonical 36-character form produced by Dump.
func Cast(value string) (ID, error) {
	u, err := uuid.Parse(value)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, value)
	}
	return ID(u), nil
}

// MustCast is Cast but panics on malformed input. It is intended for
// identifiers fixed at compile time, such as the registry table's own id.
func MustCast(value string) ID {
	id, err := Cast(value)
	if err != nil {
		panic(err.Error())
	}
	return id
}

// Dump returns the canonical textual form of id. This is the only form the
// database ever sees, and it is lossless: Cast(Dump(id)) == id.
func Dump(id ID) string {
	return uuid.UUID(id).String()
}

// String returns the canonical textual form of id.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Timestamp returns the creation time embedded in id, at millisecond
// precision.
func (id ID) Timestamp() time.Time {
	ms := int64(id[0])<<40 | int64(id[1])<<32 | int64(id[2])<<24 |
		int64(id[3])<<16 | int64(id[4])<<8 | int64(id[5])
	return time.UnixMilli(ms).UTC()
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Compare returns -1, 0, or 1 ordering ids by their raw bytes, which equals
// creation-time order for ids with distinct timestamps.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Value implements driver.Valuer. Identifiers travel to the database in
// their canonical textual form.
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner. It accepts the canonical textual form and
// the raw 16-byte form, which covers the postgres, mysql, and sqlite
// drivers' UUID representations.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := Cast(v)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case []byte:
		if len(v) == 16 {
			copy(id[:], v)
			return nil
		}
		parsed, err := Cast(string(v))
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	case [16]byte:
		*id = ID(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidIdentifier, src)
	}
}
