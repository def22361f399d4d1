package travel

import (
	"context"
	"fmt"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/walker"
)

// Tourist follows outgoing highways and lists the cities it visits in the
// "visited" response key. Each city is visited once.
type Tourist struct {
	walker.Walker

	seen map[string]bool
}

// OnCity records the city and queues its unvisited neighbours.
func (t *Tourist) OnCity(ctx context.Context, c *City) error {
	t.Response().Append("visited", c.Name)
	ctxlog.FromContext(ctx).Debug("Visiting city.", "walker", t.ID(), "city", c.Name)
	if err := t.follow(ctx, c); err != nil {
		return fmt.Errorf("neighbours of %s: %w", c.Name, err)
	}
	return nil
}

// OnRoot starts a tour from the root node.
func (t *Tourist) OnRoot(ctx context.Context, r *entity.Root) error {
	return t.follow(ctx, r)
}

func (t *Tourist) follow(ctx context.Context, from entity.NodeEntity) error {
	if t.seen == nil {
		t.seen = map[string]bool{}
	}
	t.seen[from.ID()] = true

	q, err := from.Nodes(ctx, entity.Out)
	if err != nil {
		return err
	}
	for _, n := range q.All() {
		if !t.seen[n.ID()] {
			t.seen[n.ID()] = true
			t.Visit(n)
		}
	}
	return nil
}

// ExitReport sets "count" to the number of cities visited.
func (t *Tourist) ExitReport(ctx context.Context) error {
	v, _ := t.Response().Get("visited")
	list, _ := v.([]any)
	t.Response().Set("count", len(list))
	t.seen = nil
	return nil
}

// Surveyor walks every node and edge reachable from its start, in both
// directions, and counts them per class.
type Surveyor struct {
	walker.Walker

	seen   map[string]bool
	counts map[string]int
}

// OnAny handles every node and edge.
func (s *Surveyor) OnAny(ctx context.Context, v entity.Visitable) error {
	if s.seen == nil {
		s.seen = map[string]bool{}
		s.counts = map[string]int{}
	}
	s.mark(v)

	if e, ok := v.(entity.EdgeEntity); ok {
		for _, end := range []func(context.Context) (entity.NodeEntity, error){e.Source, e.Target} {
			n, err := end(ctx)
			if err != nil {
				return err
			}
			if n != nil && s.mark(n) {
				s.Visit(n)
			}
		}
		return nil
	}

	n, ok := v.(entity.NodeEntity)
	if !ok {
		return nil
	}
	edges, err := n.Edges(ctx, entity.Both)
	if err != nil {
		return err
	}
	for _, e := range edges {
		s.mark(e)
	}
	q, err := n.Nodes(ctx, entity.Both)
	if err != nil {
		return err
	}
	for _, m := range q.All() {
		if s.mark(m) {
			s.Visit(m)
		}
	}
	return nil
}

// mark counts v the first time it is seen.
func (s *Surveyor) mark(v entity.Entity) bool {
	if s.seen[v.ID()] {
		return false
	}
	s.seen[v.ID()] = true
	s.counts[entity.ClassName(v)]++
	return true
}

// ExitSummary reports the per-class counts under "counts".
func (s *Surveyor) ExitSummary(ctx context.Context) error {
	counts := make(map[string]any, len(s.counts))
	for class, n := range s.counts {
		counts[class] = n
	}
	s.Response().Set("counts", counts)
	s.seen, s.counts = nil, nil
	return nil
}
