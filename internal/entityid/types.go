// internal/entityid/types.go
package entityid

// Kind is the single-letter type code that prefixes every identifier.
type Kind byte

const (
	// Object is the kind of generic persistable objects.
	Object Kind = 'o'
	// Node is the kind of graph vertices.
	Node Kind = 'n'
	// Edge is the kind of graph connectors.
	Edge Kind = 'e'
	// Walker is the kind of traversal agents.
	Walker Kind = 'w'
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case Object:
		return "object"
	case Node:
		return "node"
	case Edge:
		return "edge"
	case Walker:
		return "walker"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case Object, Node, Edge, Walker:
		return true
	}
	return false
}

const (
	// RootClass is the class name of the singleton root node.
	RootClass = "RootNode"
	// RootSuffix is the reserved suffix of the root node identifier.
	RootSuffix = "root"
	// RootID is the fixed identifier of the singleton root node.
	RootID = "n:RootNode:root"

	// SuffixLen is the number of hex characters in a generated suffix.
	SuffixLen = 24
)

// ID is the structured representation of an entity identifier.
type ID struct {
	Kind   Kind
	Class  string
	Suffix string
}

// IsRoot returns true if the identifier is the reserved root node id.
func (id *ID) IsRoot() bool {
	return id != nil && id.Kind == Node && id.Class == RootClass && id.Suffix == RootSuffix
}
