package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/osgraph/internal/query"
	"github.com/specialistvlad/osgraph/internal/store"
)

// RecordingStore wraps a store.Store, counting calls per operation and
// optionally failing saves.
type RecordingStore struct {
	store.Store

	saves   atomic.Int64
	gets    atomic.Int64
	deletes atomic.Int64
	finds   atomic.Int64

	mu       sync.Mutex
	failSave func(collection string, rec store.Record) error
	saveHook func(collection string, rec store.Record)
}

// NewRecordingStore wraps inner.
func NewRecordingStore(inner store.Store) *RecordingStore {
	return &RecordingStore{Store: inner}
}

// FailSaves makes every Save for which fn returns non-nil fail with that error.
func (s *RecordingStore) FailSaves(fn func(collection string, rec store.Record) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSave = fn
}

// OnSave registers a callback invoked before every Save reaches the inner store.
func (s *RecordingStore) OnSave(fn func(collection string, rec store.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveHook = fn
}

func (s *RecordingStore) Save(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	s.saves.Add(1)
	s.mu.Lock()
	fail, hook := s.failSave, s.saveHook
	s.mu.Unlock()
	if hook != nil {
		hook(collection, rec)
	}
	if fail != nil {
		if err := fail(collection, rec); err != nil {
			return store.Record{}, err
		}
	}
	return s.Store.Save(ctx, collection, rec)
}

func (s *RecordingStore) Get(ctx context.Context, collection, id string) (store.Record, bool, error) {
	s.gets.Add(1)
	return s.Store.Get(ctx, collection, id)
}

func (s *RecordingStore) Delete(ctx context.Context, collection, id string) (bool, error) {
	s.deletes.Add(1)
	return s.Store.Delete(ctx, collection, id)
}

func (s *RecordingStore) Find(ctx context.Context, collection string, p query.Predicate) ([]store.Record, error) {
	s.finds.Add(1)
	return s.Store.Find(ctx, collection, p)
}

// Saves returns the number of Save calls observed.
func (s *RecordingStore) Saves() int64 { return s.saves.Load() }

// Gets returns the number of Get calls observed.
func (s *RecordingStore) Gets() int64 { return s.gets.Load() }

// Deletes returns the number of Delete calls observed.
func (s *RecordingStore) Deletes() int64 { return s.deletes.Load() }

// Finds returns the number of Find calls observed.
func (s *RecordingStore) Finds() int64 { return s.finds.Load() }
