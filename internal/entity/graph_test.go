package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/memstore"
	"github.com/specialistvlad/osgraph/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func ids[T Entity](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID())
	}
	return out
}

func TestConnect_Directions(t *testing.T) {
	tests := []struct {
		dir           Direction
		wantSourceIsA bool
		bidirectional bool
		aOut, aIn     bool
		bOut, bIn     bool
	}{
		{dir: Out, wantSourceIsA: true, aOut: true, bIn: true},
		{dir: In, wantSourceIsA: false, aIn: true, bOut: true},
		{dir: Both, wantSourceIsA: true, bidirectional: true, aOut: true, aIn: true, bOut: true, bIn: true},
	}
	for _, tc := range tests {
		t.Run(string(tc.dir), func(t *testing.T) {
			f := newFixture(t)
			a, b := f.city(t, "A"), f.city(t, "B")
			hw := &Highway{Lanes: 2}

			require.NoError(t, a.Connect(f.ctx, b, hw, tc.dir))

			if tc.wantSourceIsA {
				assert.Equal(t, a.ID(), hw.SourceID())
				assert.Equal(t, b.ID(), hw.TargetID())
			} else {
				assert.Equal(t, b.ID(), hw.SourceID())
				assert.Equal(t, a.ID(), hw.TargetID())
			}
			assert.Equal(t, tc.bidirectional, hw.Bidirectional())
			assert.Equal(t, []string{hw.ID()}, a.EdgeIDs())
			assert.Equal(t, []string{hw.ID()}, b.EdgeIDs())

			check := func(n *City, dir Direction, want bool) {
				edges, err := n.Edges(f.ctx, dir)
				require.NoError(t, err)
				if want {
					assert.Equal(t, []string{hw.ID()}, ids(edges), "%s edges(%s)", n.Name, dir)
				} else {
					assert.Empty(t, edges, "%s edges(%s)", n.Name, dir)
				}
			}
			check(a, Out, tc.aOut)
			check(a, In, tc.aIn)
			check(b, Out, tc.bOut)
			check(b, In, tc.bIn)
			check(a, Both, true)
		})
	}
}

func TestConnect_PersistsBothEndpoints(t *testing.T) {
	f := newFixture(t)
	a, b := f.city(t, "A"), f.city(t, "B")
	hw := &Highway{Lanes: 3}
	require.NoError(t, a.Connect(f.ctx, b, hw, Out))

	// Connect is synchronous: records are visible without a flush.
	for _, n := range []*City{a, b} {
		rec, ok, err := f.store.Get(f.ctx, store.NodeCollection, n.ID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []string{hw.ID()}, rec.Edges)
	}
	rec, ok, err := f.store.Get(f.ctx, store.EdgeCollection, hw.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID(), rec.Source)
	assert.Equal(t, 3, rec.Context["lanes"])

	// A stale async snapshot enqueued before Connect must not win.
	require.NoError(t, f.sess.Flush(f.ctx))
	got, err := GetAs[*City](f.ctx, f.sess, a.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{hw.ID()}, got.EdgeIDs())
}

func TestConnect_ConcurrentCopiesKeepEveryEdge(t *testing.T) {
	f := newFixture(t)
	hub := f.city(t, "Hub")
	require.NoError(t, f.sess.Flush(f.ctx))

	const n = 8
	copies := make([]*City, n)
	spokes := make([]*City, n)
	for i := range copies {
		c, err := GetAs[*City](f.ctx, f.sess, hub.ID())
		require.NoError(t, err)
		copies[i] = c
		spokes[i] = f.city(t, fmt.Sprintf("Spoke %d", i))
	}

	var g errgroup.Group
	for i := range copies {
		g.Go(func() error {
			return copies[i].Connect(f.ctx, spokes[i], &Highway{Lanes: i}, Out)
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, f.sess.Flush(f.ctx))

	got, err := GetAs[*City](f.ctx, f.sess, hub.ID())
	require.NoError(t, err)
	assert.Len(t, got.EdgeIDs(), n)
	out, err := got.Edges(f.ctx, Out)
	require.NoError(t, err)
	assert.Len(t, out, n)

	// Removing through one stale copy keeps the others.
	_, err = copies[0].Disconnect(f.ctx, spokes[0], Out)
	require.NoError(t, err)
	got, err = GetAs[*City](f.ctx, f.sess, hub.ID())
	require.NoError(t, err)
	assert.Len(t, got.EdgeIDs(), n-1)
	assert.Len(t, copies[0].EdgeIDs(), n-1, "the acting copy is refreshed")
}

func TestConnect_Errors(t *testing.T) {
	f := newFixture(t)
	a, b := f.city(t, "A"), f.city(t, "B")

	assert.ErrorIs(t, a.Connect(f.ctx, b, &Highway{}, Direction("sideways")), ErrInvalidDirection)
	assert.ErrorIs(t, a.Connect(f.ctx, &City{Name: "loose"}, &Highway{}, Out), ErrUnbound)
	assert.Error(t, a.Connect(f.ctx, b, nil, Out))

	boom := errors.New("write failed")
	f.store.FailSaves(func(collection string, _ store.Record) error {
		if collection == store.EdgeCollection {
			return boom
		}
		return nil
	})
	err := a.Connect(f.ctx, b, &Highway{}, Out)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, a.EdgeIDs(), "endpoints are untouched when the edge cannot be saved")
}

func TestEdges_SkipsTombstones(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.city(t, "A"), f.city(t, "B"), f.city(t, "C")
	ab, ac := &Highway{}, &Rail{}
	require.NoError(t, a.Connect(f.ctx, b, ab, Out))
	require.NoError(t, a.Connect(f.ctx, c, ac, Out))

	_, err := f.store.Delete(f.ctx, store.EdgeCollection, ab.ID())
	require.NoError(t, err)

	edges, err := a.Edges(f.ctx, Out)
	require.NoError(t, err)
	assert.Equal(t, []string{ac.ID()}, ids(edges))
	assert.Len(t, a.EdgeIDs(), 2, "dangling ids are tolerated, not removed")
}

func TestNodes_DedupesNeighbours(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.city(t, "A"), f.city(t, "B"), f.city(t, "C")
	require.NoError(t, a.Connect(f.ctx, b, &Highway{Lanes: 2}, Out))
	require.NoError(t, a.Connect(f.ctx, c, &Highway{Lanes: 4}, Out))
	require.NoError(t, a.Connect(f.ctx, b, &Rail{Operator: "Amtrak"}, Out))

	q, err := a.Nodes(f.ctx, Out)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID(), c.ID()}, ids(q.All()))
	assert.Equal(t, a.ID(), q.Source().ID())

	// Missing neighbour records are skipped.
	require.NoError(t, f.sess.Flush(f.ctx))
	_, err = f.store.Delete(f.ctx, store.NodeCollection, c.ID())
	require.NoError(t, err)
	q, err = a.Nodes(f.ctx, Out)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID()}, ids(q.All()))

	q, err = b.Nodes(f.ctx, In)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID()}, ids(q.All()))
}

func TestNodeQuery_Filter(t *testing.T) {
	f := newFixture(t)
	hub := f.city(t, "Hub")
	b := f.city(t, "B")
	c := f.city(t, "C")
	town, err := Create(f.ctx, f.sess, &Town{Name: "T"})
	require.NoError(t, err)

	require.NoError(t, hub.Connect(f.ctx, b, &Highway{Lanes: 2, Code: "I-55"}, Out))
	require.NoError(t, hub.Connect(f.ctx, c, &Rail{Operator: "Amtrak", Meta: map[string]any{"gt": 1}}, In))
	require.NoError(t, hub.Connect(f.ctx, town, &Highway{Lanes: 4, Toll: true}, Both))

	q, err := hub.Nodes(f.ctx, Both)
	require.NoError(t, err)
	require.Len(t, q.All(), 3)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "no constraints", filter: Filter{}, want: []string{b.ID(), c.ID(), town.ID()}},
		{name: "node type", filter: Filter{Node: "Town"}, want: []string{town.ID()}},
		{name: "edge type", filter: Filter{Edge: "Highway"}, want: []string{b.ID(), town.ID()}},
		{name: "direction out", filter: Filter{Direction: Out}, want: []string{b.ID(), town.ID()}},
		{name: "direction in", filter: Filter{Direction: In}, want: []string{c.ID(), town.ID()}},
		{name: "edge field", filter: Filter{Fields: map[string]any{"lanes": 4}}, want: []string{town.ID()}},
		{name: "edge field float", filter: Filter{Fields: map[string]any{"lanes": 2.0}}, want: []string{b.ID()}},
		{name: "several fields", filter: Filter{Edge: "Highway", Fields: map[string]any{"toll": true, "lanes": 4}}, want: []string{town.ID()}},
		{name: "node and edge", filter: Filter{Node: "City", Edge: "Rail"}, want: []string{c.ID()}},
		{name: "map field is compared whole", filter: Filter{Fields: map[string]any{"meta": map[string]any{"gt": 1}}}, want: []string{c.ID()}},
		{name: "map field differs", filter: Filter{Fields: map[string]any{"meta": map[string]any{"gt": 2}}}, want: []string{}},
		{name: "nothing matches", filter: Filter{Edge: "Ferry"}, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := q.Filter(f.ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestNodeDestroy_Cascade(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.city(t, "A"), f.city(t, "B"), f.city(t, "C")
	ab, ca := &Highway{}, &Highway{}
	require.NoError(t, a.Connect(f.ctx, b, ab, Out))
	require.NoError(t, c.Connect(f.ctx, a, ca, Out))

	require.NoError(t, a.Destroy(f.ctx, true))

	for _, id := range []string{ab.ID(), ca.ID()} {
		_, ok, err := f.store.Get(f.ctx, store.EdgeCollection, id)
		require.NoError(t, err)
		assert.False(t, ok, "edge %s deleted", id)
	}
	_, ok, err := f.store.Get(f.ctx, store.NodeCollection, a.ID())
	require.NoError(t, err)
	assert.False(t, ok)

	gotB, err := GetAs[*City](f.ctx, f.sess, b.ID())
	require.NoError(t, err)
	assert.Empty(t, gotB.EdgeIDs())
	gotC, err := GetAs[*City](f.ctx, f.sess, c.ID())
	require.NoError(t, err)
	assert.Empty(t, gotC.EdgeIDs())

	// The async snapshot from Create must not resurrect the node.
	require.NoError(t, f.sess.Flush(f.ctx))
	_, ok, err = f.store.Get(f.ctx, store.NodeCollection, a.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNodeDestroy_NoCascadeLeavesDanglingEdges(t *testing.T) {
	f := newFixture(t)
	a, b := f.city(t, "A"), f.city(t, "B")
	ab := &Highway{}
	require.NoError(t, a.Connect(f.ctx, b, ab, Out))

	require.NoError(t, a.Destroy(f.ctx, false))

	_, ok, err := f.store.Get(f.ctx, store.EdgeCollection, ab.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	src, err := ab.Source(f.ctx)
	require.NoError(t, err)
	assert.Nil(t, src, "dangling endpoints load as absent")

	q, err := b.Nodes(f.ctx, In)
	require.NoError(t, err)
	assert.Empty(t, q.All())
}

func TestEdgeDestroyAndDisconnect(t *testing.T) {
	f := newFixture(t)
	a, b := f.city(t, "A"), f.city(t, "B")
	e1, e2, e3 := &Highway{}, &Rail{}, &Highway{}
	require.NoError(t, a.Connect(f.ctx, b, e1, Out))
	require.NoError(t, a.Connect(f.ctx, b, e2, In))
	require.NoError(t, a.Connect(f.ctx, b, e3, Out))

	require.NoError(t, e1.Destroy(f.ctx))
	gotA, err := GetAs[*City](f.ctx, f.sess, a.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{e2.ID(), e3.ID()}, gotA.EdgeIDs())

	tgt, err := e3.Target(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), tgt.ID())
	assert.Equal(t, a.ID(), e3.Opposite(b.ID()))
	assert.Equal(t, "", e3.Opposite("n:City:elsewhere"))

	// Reload so the in-memory lists match the store after e1.Destroy.
	gotB, err := GetAs[*City](f.ctx, f.sess, b.ID())
	require.NoError(t, err)
	a, b = gotA, gotB
	n, err := a.Disconnect(f.ctx, b, Out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{e2.ID()}, a.EdgeIDs())
	assert.Equal(t, []string{e2.ID()}, b.EdgeIDs())

	stored, _, err := f.store.Get(f.ctx, store.NodeCollection, b.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{e2.ID()}, stored.Edges)
}

func TestEdge_ExplicitEndpoints(t *testing.T) {
	f := newFixture(t)
	a, b := f.city(t, "A"), f.city(t, "B")

	r := &Rail{Operator: "Metra"}
	r.SetEndpoints(b.ID(), a.ID(), false)
	_, err := Create(f.ctx, f.sess, r)
	require.NoError(t, err)
	require.NoError(t, f.sess.Flush(f.ctx))

	got, err := GetAs[*Rail](f.ctx, f.sess, r.ID())
	require.NoError(t, err)
	assert.Equal(t, b.ID(), got.SourceID())
	assert.Equal(t, a.ID(), got.TargetID())
	assert.Equal(t, Out, got.Direction())
}

func TestGetRoot_Concurrent(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	rootSaves := 0
	f.store.OnSave(func(_ string, rec store.Record) {
		if rec.ID == entityid.RootID {
			mu.Lock()
			rootSaves++
			mu.Unlock()
		}
	})

	const n = 50
	got := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			root, err := GetRoot(f.ctx, f.sess)
			if err != nil {
				return err
			}
			got[i] = root.ID() + "/" + root.Instance
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, v := range got {
		assert.Equal(t, got[0], v)
	}
	assert.Equal(t, 1, rootSaves, "exactly one root record is created")

	root, err := GetRoot(f.ctx, f.sess)
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Equal(t, entityid.RootClass, ClassName(root))
	assert.NotEmpty(t, root.Instance)
}

// racingStore simulates another process creating the root between our save
// and our verification read.
type racingStore struct {
	store.Store
}

func (s *racingStore) Save(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	if rec.ID == entityid.RootID {
		rec = rec.Clone()
		rec.Context["instance"] = "someone-else"
	}
	return s.Store.Save(ctx, collection, rec)
}

func TestGetRoot_SingletonViolation(t *testing.T) {
	f := newFixtureWithStore(t, &racingStore{Store: memstore.New()})

	_, err := GetRoot(f.ctx, f.sess)
	assert.ErrorIs(t, err, ErrSingletonViolation)
}

func TestGetRoot_ConnectsLikeAnyNode(t *testing.T) {
	f := newFixture(t)
	root, err := GetRoot(f.ctx, f.sess)
	require.NoError(t, err)
	a := f.city(t, "A")
	require.NoError(t, root.Connect(f.ctx, a, &Highway{}, Out))

	again, err := GetRoot(context.Background(), f.sess)
	require.NoError(t, err)
	q, err := again.Nodes(f.ctx, Out)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID()}, ids(q.All()))
}
