// internal/entityid/doc.go

/*
Package entityid provides the structured representation of entity
identifiers, based on the canonical format `kind:Class:suffix`.

The kind is a single letter (`o` object, `n` node, `e` edge, `w` walker),
Class is the Go type name of the entity and suffix is 24 lowercase hex
characters. The one exception is the root node, whose suffix is the literal
`root`.

This package centralizes all formatting, generation and parsing logic so that
the rest of the system never splits identifier strings by hand.
*/
package entityid
