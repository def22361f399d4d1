package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/osgraph/internal/query"
	"github.com/specialistvlad/osgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func city(id, name string, pop int) store.Record {
	return store.Record{
		ID:      id,
		Name:    "City",
		Context: map[string]any{"name": name, "population": pop},
		Edges:   []string{},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	// Get a record that doesn't exist yet
	_, ok, err := s.Get(ctx, store.NodeCollection, "n:City:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	saved, err := s.Save(ctx, store.NodeCollection, city("n:City:a", "Chicago", 2700000))
	require.NoError(t, err)
	assert.Equal(t, "n:City:a", saved.ID)

	got, ok, err := s.Get(ctx, store.NodeCollection, "n:City:a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Chicago", got.Context["name"])

	// Collections are independent namespaces.
	_, ok, err = s.Get(ctx, store.EdgeCollection, "n:City:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSave_Upsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Save(ctx, store.NodeCollection, city("n:City:a", "Chicago", 1))
	require.NoError(t, err)
	_, err = s.Save(ctx, store.NodeCollection, city("n:City:a", "Chicago", 2))
	require.NoError(t, err)

	all, err := s.Find(ctx, store.NodeCollection, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].Context["population"])
}

func TestSave_IsolatesCallerMaps(t *testing.T) {
	s := New()
	ctx := context.Background()

	rec := city("n:City:a", "Chicago", 1)
	_, err := s.Save(ctx, store.NodeCollection, rec)
	require.NoError(t, err)
	rec.Context["name"] = "mutated"

	got, _, err := s.Get(ctx, store.NodeCollection, "n:City:a")
	require.NoError(t, err)
	assert.Equal(t, "Chicago", got.Context["name"])

	got.Context["name"] = "mutated again"
	again, _, err := s.Get(ctx, store.NodeCollection, "n:City:a")
	require.NoError(t, err)
	assert.Equal(t, "Chicago", again.Context["name"])
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	existed, err := s.Delete(ctx, store.NodeCollection, "n:City:a")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = s.Save(ctx, store.NodeCollection, city("n:City:a", "Chicago", 1))
	require.NoError(t, err)

	existed, err = s.Delete(ctx, store.NodeCollection, "n:City:a")
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok, err := s.Get(ctx, store.NodeCollection, "n:City:a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFind(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, rec := range []store.Record{
		city("n:City:c", "Kansas City", 500000),
		city("n:City:a", "Chicago", 2700000),
		city("n:City:b", "St. Louis", 300000),
	} {
		_, err := s.Save(ctx, store.NodeCollection, rec)
		require.NoError(t, err)
	}

	tests := []struct {
		name string
		p    query.Predicate
		want []string
	}{
		{name: "empty predicate matches all in id order", p: nil, want: []string{"n:City:a", "n:City:b", "n:City:c"}},
		{name: "equality", p: query.Eq("context.name", "Chicago"), want: []string{"n:City:a"}},
		{name: "ordering", p: query.Where("context.population", query.OpLt, 1000000), want: []string{"n:City:b", "n:City:c"}},
		{name: "no match", p: query.Eq("context.name", "Boston"), want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Find(ctx, store.NodeCollection, tc.p)
			require.NoError(t, err)
			var ids []string
			for _, r := range got {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}

	t.Run("invalid predicate", func(t *testing.T) {
		_, err := s.Find(ctx, store.NodeCollection, query.Predicate{"name": map[string]any{"$regex": "x"}})
		assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	})
}

func TestClose(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Close())

	_, err := s.Save(ctx, store.NodeCollection, city("n:City:a", "Chicago", 1))
	assert.ErrorIs(t, err, store.ErrClosed)
	_, _, err = s.Get(ctx, store.NodeCollection, "n:City:a")
	assert.ErrorIs(t, err, store.ErrClosed)
	_, err = s.Find(ctx, store.NodeCollection, nil)
	assert.ErrorIs(t, err, store.ErrClosed)
}

// TestStore_ConcurrentAccess verifies that the store can be safely accessed by
// multiple goroutines simultaneously without data races or lost writes.
func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	numGoroutines := 100
	var wg sync.WaitGroup

	// Phase 1: Concurrent Writes
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("n:City:%03d", i)
			if _, err := s.Save(ctx, store.NodeCollection, city(id, id, i)); err != nil {
				t.Errorf("save %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	// Phase 2: Concurrent Reads / Verification
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("n:City:%03d", i)
			rec, ok, err := s.Get(ctx, store.NodeCollection, id)
			assert.NoError(t, err)
			assert.True(t, ok, "missing record %s", id)
			assert.Equal(t, i, rec.Context["population"], "mismatched record %s", id)
		}(i)
	}
	wg.Wait()

	all, err := s.Find(ctx, store.NodeCollection, nil)
	require.NoError(t, err)
	assert.Len(t, all, numGoroutines)
}
