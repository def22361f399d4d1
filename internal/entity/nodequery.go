package entity

import (
	"context"

	"github.com/specialistvlad/osgraph/internal/query"
)

// NodeQuery is the neighbourhood of a node produced by Node.Nodes, ready to
// be narrowed with Filter.
type NodeQuery struct {
	source     NodeEntity
	candidates []NodeEntity
}

// Filter narrows a NodeQuery. Zero fields do not constrain.
type Filter struct {
	// Node keeps candidates whose class name equals Node.
	Node string
	// Edge keeps candidates connected by at least one edge of this class.
	Edge string
	// Direction restricts the connecting edges considered.
	Direction Direction
	// Fields must all equal the context fields of a connecting edge.
	Fields map[string]any
}

func (f Filter) needsEdges() bool {
	return f.Edge != "" || f.Direction != "" || len(f.Fields) > 0
}

// Source returns the node the query was built from.
func (q *NodeQuery) Source() NodeEntity { return q.source }

// All returns the unfiltered candidates.
func (q *NodeQuery) All() []NodeEntity {
	out := make([]NodeEntity, len(q.candidates))
	copy(out, q.candidates)
	return out
}

// Filter returns the candidates satisfying f. An empty result is valid.
func (q *NodeQuery) Filter(ctx context.Context, f Filter) ([]NodeEntity, error) {
	var out []NodeEntity
	for _, c := range q.candidates {
		if f.Node != "" && ClassName(c) != f.Node {
			continue
		}
		if !f.needsEdges() {
			out = append(out, c)
			continue
		}
		ok, err := q.connected(ctx, c, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// connected reports whether some edge between the source and candidate
// satisfies the edge constraints of f.
func (q *NodeQuery) connected(ctx context.Context, candidate NodeEntity, f Filter) (bool, error) {
	dir := f.Direction
	if dir == "" {
		dir = Both
	}
	edges, err := q.source.node().Edges(ctx, dir)
	if err != nil {
		return false, err
	}

	pred := query.Predicate{}
	for k, v := range f.Fields {
		pred["context."+k] = map[string]any{"$eq": v}
	}
	for _, e := range edges {
		if e.edge().Opposite(q.source.ID()) != candidate.ID() {
			continue
		}
		if f.Edge != "" && ClassName(e) != f.Edge {
			continue
		}
		ok, err := query.Match(Export(e).Document(), pred)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
