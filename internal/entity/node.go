package entity

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entityid"
)

// NodeEntity is implemented by every type embedding Node.
type NodeEntity interface {
	Visitable
	EdgeIDs() []string
	Edges(ctx context.Context, dir Direction) ([]EdgeEntity, error)
	Nodes(ctx context.Context, dir Direction) (*NodeQuery, error)
	Connect(ctx context.Context, other NodeEntity, edge EdgeEntity, dir Direction) error
	node() *Node
}

// Node is the base for graph vertices.
type Node struct {
	Object
	visitSlot

	mu    sync.Mutex
	edges []string
}

// EntityKind reports entityid.Node.
func (n *Node) EntityKind() entityid.Kind { return entityid.Node }

func (n *Node) node() *Node { return n }

// IsRoot reports whether this is the root node.
func (n *Node) IsRoot() bool { return n.id == entityid.RootID }

// EdgeIDs returns a copy of the ids of the edges touching this node, in
// connection order.
func (n *Node) EdgeIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.edges == nil {
		return []string{}
	}
	return slices.Clone(n.edges)
}

func (n *Node) setEdgeIDs(ids []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edges = slices.Clone(ids)
}

func (n *Node) removeEdge(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := slices.Index(n.edges, id)
	if i < 0 {
		return false
	}
	n.edges = slices.Delete(n.edges, i, i+1)
	return true
}

// updateEdges applies fn to the newest persisted edge list of ent under the
// session's per-node lock, saves the result when fn reports a change, and
// refreshes the in-memory copy. Copies of the same node loaded separately
// therefore never overwrite each other's edge ids.
func updateEdges(ctx context.Context, sess *Session, ent NodeEntity, fn func([]string) ([]string, bool)) error {
	n := ent.node()
	unlock := sess.edgeLocks.Lock(n.id)
	defer unlock()

	ids := n.EdgeIDs()
	rec, ok, err := sess.writer.Get(ctx, Collection(ent), n.id)
	if err != nil {
		return err
	}
	if ok {
		ids = slices.Clone(rec.Edges)
	}
	next, changed := fn(ids)
	n.setEdgeIDs(next)
	if !changed {
		return nil
	}
	return Save(ctx, ent)
}

func addEdgeID(id string) func([]string) ([]string, bool) {
	return func(ids []string) ([]string, bool) {
		if slices.Contains(ids, id) {
			return ids, false
		}
		return append(ids, id), true
	}
}

func removeEdgeID(id string) func([]string) ([]string, bool) {
	return func(ids []string) ([]string, bool) {
		i := slices.Index(ids, id)
		if i < 0 {
			return ids, false
		}
		return slices.Delete(ids, i, i+1), true
	}
}

func (n *Node) boundNode() (NodeEntity, *Session, error) {
	self, sess, err := n.bound()
	if err != nil {
		return nil, nil, err
	}
	return self.(NodeEntity), sess, nil
}

// Connect creates edge between this node and other, persists it, and records
// it on both endpoints. edge is a fresh value of the concrete edge type
// carrying its fields. Out connects this node to other, In connects other to
// this node, Both connects this node to other bidirectionally.
//
// Steps are not compensated: if persisting an endpoint fails after the edge
// was saved, the error is returned and the caller may retry.
func (n *Node) Connect(ctx context.Context, other NodeEntity, edge EdgeEntity, dir Direction) error {
	self, sess, err := n.boundNode()
	if err != nil {
		return err
	}
	if other == nil || edge == nil {
		return fmt.Errorf("connect %s: nil endpoint or edge", n.id)
	}
	if other.node().sess == nil {
		return fmt.Errorf("connect %s -> %s: %w", n.id, other.ID(), ErrUnbound)
	}
	if !dir.Valid() {
		return fmt.Errorf("connect %s: %w: %q", n.id, ErrInvalidDirection, dir)
	}

	src, tgt := n.id, other.ID()
	if dir == In {
		src, tgt = tgt, src
	}
	e := edge.edge()
	e.SetEndpoints(src, tgt, dir == Both)
	attach(sess, edge)

	if err := Save(ctx, edge); err != nil {
		return fmt.Errorf("connect %s -> %s: %w", src, tgt, err)
	}
	if err := updateEdges(ctx, sess, self, addEdgeID(edge.ID())); err != nil {
		return fmt.Errorf("connect %s -> %s: %w", src, tgt, err)
	}
	switch {
	case other.node() == n:
	case other.ID() == n.id:
		other.node().setEdgeIDs(n.EdgeIDs())
	default:
		if err := updateEdges(ctx, sess, other, addEdgeID(edge.ID())); err != nil {
			return fmt.Errorf("connect %s -> %s: %w", src, tgt, err)
		}
	}

	ctxlog.FromContext(ctx).Debug("Connected nodes.", "edge", edge.ID(), "source", src, "target", tgt, "direction", dir)
	return nil
}

// Edges resolves the edges touching this node that match dir. Ids that no
// longer resolve are skipped. A bidirectional edge matches every direction.
func (n *Node) Edges(ctx context.Context, dir Direction) ([]EdgeEntity, error) {
	_, sess, err := n.bound()
	if err != nil {
		return nil, err
	}
	if !dir.Valid() {
		return nil, fmt.Errorf("edges of %s: %w: %q", n.id, ErrInvalidDirection, dir)
	}

	var out []EdgeEntity
	for _, id := range n.EdgeIDs() {
		ent, err := Get(ctx, sess, id)
		if err != nil {
			return nil, fmt.Errorf("edges of %s: %w", n.id, err)
		}
		edge, ok := ent.(EdgeEntity)
		if !ok {
			continue
		}
		if edge.edge().matches(n.id, dir) {
			out = append(out, edge)
		}
	}
	return out, nil
}

// Nodes resolves the neighbours reachable over Edges(dir), deduplicated by
// id in order of first appearance.
func (n *Node) Nodes(ctx context.Context, dir Direction) (*NodeQuery, error) {
	self, sess, err := n.boundNode()
	if err != nil {
		return nil, err
	}
	edges, err := n.Edges(ctx, dir)
	if err != nil {
		return nil, err
	}

	var order []string
	byID := map[string]NodeEntity{}
	for _, edge := range edges {
		id := edge.edge().Opposite(n.id)
		if id == "" {
			continue
		}
		neighbour, err := GetAs[NodeEntity](ctx, sess, id)
		if err != nil {
			return nil, fmt.Errorf("nodes of %s: %w", n.id, err)
		}
		if neighbour == nil {
			continue
		}
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = neighbour
	}

	candidates := make([]NodeEntity, 0, len(order))
	for _, id := range order {
		candidates = append(candidates, byID[id])
	}
	return &NodeQuery{source: self, candidates: candidates}, nil
}

// Disconnect destroys the edges between this node and other that match dir
// and returns how many were removed.
func (n *Node) Disconnect(ctx context.Context, other NodeEntity, dir Direction) (int, error) {
	self, sess, err := n.boundNode()
	if err != nil {
		return 0, err
	}
	edges, err := n.Edges(ctx, dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, edge := range edges {
		if edge.edge().Opposite(n.id) != other.ID() {
			continue
		}
		if err := destroyEdge(ctx, sess, edge, "", self, other); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// Destroy deletes the node. With cascade, every connected edge is deleted
// and detached from its opposite endpoint first. Without cascade, edges are
// left dangling.
func (n *Node) Destroy(ctx context.Context, cascade bool) error {
	self, sess, err := n.boundNode()
	if err != nil {
		return err
	}
	if cascade {
		edges, err := n.Edges(ctx, Both)
		if err != nil {
			return fmt.Errorf("destroy %s: %w", n.id, err)
		}
		for _, edge := range edges {
			if err := destroyEdge(ctx, sess, edge, n.id); err != nil {
				return fmt.Errorf("destroy %s: %w", n.id, err)
			}
			n.removeEdge(edge.ID())
		}
	}
	if _, err := sess.writer.Delete(ctx, Collection(self), n.id); err != nil {
		return fmt.Errorf("destroy %s: %w", n.id, err)
	}
	ctxlog.FromContext(ctx).Debug("Destroyed node.", "id", n.id, "cascade", cascade)
	return nil
}
