// Package memstore provides an ephemeral, thread-safe, in-memory
// implementation of the store.Store interface.
//
// # Concurrency Model
//
// Each collection is its own sync.Map, created lazily on first use. Records
// are independent documents written by many walkers at once, which is the
// access pattern sync.Map is built for: a stable key space with frequent
// value replacement.
//
// Records are deep-copied on the way in and on the way out, so callers never
// share mutable maps with the store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/osgraph/internal/query"
	"github.com/specialistvlad/osgraph/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	collections sync.Map // Key: collection name, Value: *sync.Map (id -> store.Record)
	closed      atomic.Bool
}

// New creates a new, empty in-memory store.
func New() *Store {
	return &Store{}
}

var _ store.Store = (*Store)(nil)

func (s *Store) collection(name string) *sync.Map {
	c, _ := s.collections.LoadOrStore(name, &sync.Map{})
	return c.(*sync.Map)
}

// Save upserts rec into collection.
func (s *Store) Save(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	if s.closed.Load() {
		return store.Record{}, store.ErrClosed
	}
	s.collection(collection).Store(rec.ID, rec.Clone())
	return rec.Clone(), nil
}

// Get retrieves a record by id. Absent records report ok == false.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Record, bool, error) {
	if s.closed.Load() {
		return store.Record{}, false, store.ErrClosed
	}
	v, ok := s.collection(collection).Load(id)
	if !ok {
		return store.Record{}, false, nil
	}
	return v.(store.Record).Clone(), true, nil
}

// Delete removes a record by id and reports whether it was present.
func (s *Store) Delete(ctx context.Context, collection, id string) (bool, error) {
	if s.closed.Load() {
		return false, store.ErrClosed
	}
	_, existed := s.collection(collection).LoadAndDelete(id)
	return existed, nil
}

// Find returns all records matching p in ascending id order.
func (s *Store) Find(ctx context.Context, collection string, p query.Predicate) ([]store.Record, error) {
	if s.closed.Load() {
		return nil, store.ErrClosed
	}
	var out []store.Record
	var matchErr error
	s.collection(collection).Range(func(_, v any) bool {
		rec := v.(store.Record)
		ok, err := query.Match(rec.Document(), p)
		if err != nil {
			matchErr = err
			return false
		}
		if ok {
			out = append(out, rec.Clone())
		}
		return true
	})
	if matchErr != nil {
		return nil, matchErr
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close marks the store closed. Subsequent calls return store.ErrClosed.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
