package entity

import "fmt"

// Direction selects edges relative to a node.
type Direction string

const (
	// Out selects edges whose source is the node.
	Out Direction = "out"
	// In selects edges whose target is the node.
	In Direction = "in"
	// Both selects every edge touching the node. On Connect it creates a
	// bidirectional edge.
	Both Direction = "both"
)

// Valid reports whether d is one of Out, In or Both.
func (d Direction) Valid() bool {
	switch d {
	case Out, In, Both:
		return true
	}
	return false
}

// ParseDirection converts s into a Direction. The empty string means Both.
func ParseDirection(s string) (Direction, error) {
	if s == "" {
		return Both, nil
	}
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}
