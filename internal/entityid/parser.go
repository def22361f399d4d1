// internal/entityid/parser.go
package entityid

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	classRegex  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	suffixRegex = regexp.MustCompile(`^[0-9a-f]{24}$`)
)

// Parse creates a new ID by parsing its canonical string representation.
func Parse(raw string) (*ID, error) {
	if raw == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("identifier %q must have exactly three ':'-separated parts", raw)
	}

	if len(parts[0]) != 1 || !Kind(parts[0][0]).Valid() {
		return nil, fmt.Errorf("invalid kind code %q in identifier %q", parts[0], raw)
	}
	id := &ID{Kind: Kind(parts[0][0]), Class: parts[1], Suffix: parts[2]}

	if !classRegex.MatchString(id.Class) {
		return nil, fmt.Errorf("invalid class name %q in identifier %q", id.Class, raw)
	}

	if id.Suffix == RootSuffix {
		if !id.IsRoot() {
			return nil, fmt.Errorf("suffix %q is reserved for %s", RootSuffix, RootID)
		}
		return id, nil
	}
	if !suffixRegex.MatchString(id.Suffix) {
		return nil, fmt.Errorf("invalid suffix %q in identifier %q", id.Suffix, raw)
	}
	return id, nil
}

// KindOf returns the kind encoded in a raw identifier without full validation.
// It returns 0 for strings that do not start with a known kind code.
func KindOf(raw string) Kind {
	if len(raw) < 2 || raw[1] != ':' {
		return 0
	}
	if k := Kind(raw[0]); k.Valid() {
		return k
	}
	return 0
}
