// Package store defines the Persistence Port: the collection-scoped CRUD and
// query contract every entity uses to read and write its storage
// representation.
//
// # Why Store Exists
//
// Entities never talk to a database directly. They export themselves into a
// Record and hand it to whatever Store the session was built with. This keeps
// the entity model, the walker engine and the tests independent of the
// backend (in-memory, BadgerDB, SQLite).
//
// # Consistency Model
//
// The port is eventually consistent per document. No ordering, transactional
// or index guarantees are required. Save is an upsert by Record.ID and must be
// safe to call concurrently for different ids and idempotent for repeated
// identical saves.
//
// # Typical Implementation
//
// See internal/memstore for the reference in-memory implementation.
package store

import (
	"context"
	"errors"

	"github.com/specialistvlad/osgraph/internal/query"
)

// Well-known collection names.
const (
	NodeCollection   = "node"
	EdgeCollection   = "edge"
	ObjectCollection = "object"
)

// ErrClosed is returned by backends once Close has been called.
var ErrClosed = errors.New("store: closed")

// Store is the interface implemented by every persistence backend.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use. Several walkers may read
// and write the same collections at once.
type Store interface {
	// Save upserts rec into collection, keyed by rec.ID, and returns the
	// stored record.
	Save(ctx context.Context, collection string, rec Record) (Record, error)

	// Get loads a record by id. A missing record is not an error: it is
	// reported as (Record{}, false, nil).
	Get(ctx context.Context, collection, id string) (Record, bool, error)

	// Delete removes a record by id and reports whether it existed.
	Delete(ctx context.Context, collection, id string) (bool, error)

	// Find returns every record of collection whose document satisfies p.
	// An empty predicate matches all records.
	Find(ctx context.Context, collection string, p query.Predicate) ([]Record, error)

	// Close releases backend resources.
	Close() error
}
