// Package registry provides the central "glue" between user-defined graph
// types and the walker engine.
//
// Node, edge and walker types are registered once at startup. Registration
// scans each type's method set with reflection and builds an immutable
// per-type hook table:
//
//   - visit hooks are methods named On<Something> with the signature
//     func(context.Context, T) error. On a walker, T is the node or edge type
//     it reacts to. On a node or edge, T is the walker type it reacts to. An
//     interface T is a wildcard matching every type implementing it.
//   - exit hooks are methods named Exit<Something> with the signature
//     func(context.Context) error. Only walkers may declare them; they run
//     once the walker's queue drains.
//
// Malformed hooks are configuration errors reported at registration time,
// never at traversal time. After Freeze the tables are read-only and safe for
// concurrent use by any number of walkers.
//
// The registry doubles as the entity type factory used to reconstruct stored
// records by class name.
package registry
