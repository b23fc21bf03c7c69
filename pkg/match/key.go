package match

import (
	"strings"

	"github.com/nexa-labs/crosscheck/pkg/constants"
	"github.com/nexa-labs/crosscheck/pkg/mapping"
)

// Key is the composite identity a record is matched under: the person
// name and the client name joined by constants.KeySeparator. Keys are
// compared as opaque strings; two records describe the same engagement
// exactly when their keys are equal. Person and client names may
// themselves contain the separator, so a key is never split back into
// its parts. Code that needs the parts carries them alongside the key.
type Key string

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// KeyFor builds the composite key for a person and client pair. Blank
// or whitespace-only fields are replaced with constants.NullPlaceholder
// so malformed records survive key construction. The substitution can
// pair up unrelated records that are both missing the same field, which
// is why the matcher logs a warning whenever it happens.
func KeyFor(person, client string) Key {
	return Key(sanitizeField(person) + constants.KeySeparator + sanitizeField(client))
}

// Coerced reports whether KeyFor would substitute the null placeholder
// for either field of the pair.
func Coerced(person, client string) bool {
	return strings.TrimSpace(person) == "" || strings.TrimSpace(client) == ""
}

func sanitizeField(field string) string {
	if strings.TrimSpace(field) == "" {
		return constants.NullPlaceholder
	}
	return field
}

// Keys carries the raw and mapped composite keys for one record in one
// mapping direction.
type Keys struct {
	Raw    Key  // key in the record's own system
	Mapped Key  // key translated into the other system's space
	OK     bool // a usable mapped key exists
}

// ForwardKeys builds the keys for a roster record mapped into planner
// space. Forward mapping never fails: a client absent from the table
// passes through unchanged, so identically named clients still line up.
func ForwardKeys(person, client string, clients *mapping.ClientMap) Keys {
	person = sanitizeField(person)
	client = sanitizeField(client)
	return Keys{
		Raw:    KeyFor(person, client),
		Mapped: KeyFor(person, clients.MapOrSelf(client)),
		OK:     true,
	}
}

// BackwardKeys builds the keys for a planner record mapped into roster
// space. The reverse table keeps a single roster name per planner name,
// so a planner client without a reverse entry has no usable mapped key
// and cannot initiate a match from this direction.
func BackwardKeys(person, client string, clients *mapping.ClientMap) Keys {
	person = sanitizeField(person)
	client = sanitizeField(client)
	source, ok := clients.Reverse(client)
	if !ok {
		return Keys{Raw: KeyFor(person, client)}
	}
	return Keys{
		Raw:    KeyFor(person, client),
		Mapped: KeyFor(person, source),
		OK:     true,
	}
}

// Direction identifies which mapping direction produced a candidate
// pair.
type Direction string

const (
	// DirectionForward marks pairs found by mapping roster keys into
	// planner space.
	DirectionForward Direction = "forward"
	// DirectionBackward marks pairs found by mapping planner keys into
	// roster space.
	DirectionBackward Direction = "backward"
)

// String returns the direction as a string.
func (d Direction) String() string {
	return string(d)
}

// IsValid returns true if the direction is a known value.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionForward, DirectionBackward:
		return true
	}
	return false
}
