// internal/entityid/id.go
package entityid

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Generate returns a new identifier for an entity of the given kind and class.
// The suffix is drawn from a random UUID and truncated to SuffixLen hex
// characters, so it can never be the reserved root suffix.
func Generate(kind Kind, class string) string {
	u := uuid.New()
	suffix := hex.EncodeToString(u[:])[:SuffixLen]
	return (&ID{Kind: kind, Class: class, Suffix: suffix}).String()
}

// String serializes the ID into its canonical `kind:Class:suffix` form.
func (id *ID) String() string {
	if id == nil {
		return ""
	}
	return string(id.Kind) + ":" + id.Class + ":" + id.Suffix
}

// Equal checks two identifiers for equality. Two nil identifiers are equal.
func (id *ID) Equal(other *ID) bool {
	if id == nil || other == nil {
		return id == other
	}
	return *id == *other
}
