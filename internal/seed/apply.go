package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/entityid"
)

// Types constructs registered graph types by class name. *registry.Registry
// satisfies it.
type Types interface {
	New(class string) (any, bool)
	Kind(class string) (entityid.Kind, bool)
}

func errConflictingRootEdge(a, b string) error {
	return fmt.Errorf("conflicting root_edge values '%s' and '%s'", a, b)
}

// Validate checks the seed against types without touching any store. All
// problems are reported together.
func (g *Graph) Validate(types Types, attachToRoot bool) error {
	var errs []string
	labels := map[string]bool{}

	for _, n := range g.Nodes {
		switch {
		case n.Label == RootLabel:
			errs = append(errs, fmt.Sprintf("node '%s': label is reserved", n.Label))
		case labels[n.Label]:
			errs = append(errs, fmt.Sprintf("node '%s': duplicate label", n.Label))
		}
		labels[n.Label] = true
		if err := checkKind(types, n.Type, entityid.Node); err != nil {
			errs = append(errs, fmt.Sprintf("node '%s': %v", n.Label, err))
		}
	}

	edgeLabels := map[string]bool{}
	for _, e := range g.Edges {
		if edgeLabels[e.Label] {
			errs = append(errs, fmt.Sprintf("edge '%s': duplicate label", e.Label))
		}
		edgeLabels[e.Label] = true
		if err := checkKind(types, e.Type, entityid.Edge); err != nil {
			errs = append(errs, fmt.Sprintf("edge '%s': %v", e.Label, err))
		}
		for _, end := range []string{e.From, e.To} {
			if end != RootLabel && !labels[end] {
				errs = append(errs, fmt.Sprintf("edge '%s': unknown node label '%s'", e.Label, end))
			}
		}
		if _, err := direction(e.Direction); err != nil {
			errs = append(errs, fmt.Sprintf("edge '%s': %v", e.Label, err))
		}
	}

	if attachToRoot {
		if g.RootEdge == "" {
			errs = append(errs, "root_edge is required to attach nodes to the root")
		} else if err := checkKind(types, g.RootEdge, entityid.Edge); err != nil {
			errs = append(errs, fmt.Sprintf("root_edge: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("seed validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func checkKind(types Types, class string, want entityid.Kind) error {
	kind, ok := types.Kind(class)
	if !ok {
		return fmt.Errorf("unknown type '%s'", class)
	}
	if kind != want {
		return fmt.Errorf("type '%s' has kind %s, want %s", class, kind, want)
	}
	return nil
}

// direction parses a seed direction. Seeds default to "out".
func direction(s string) (entity.Direction, error) {
	if s == "" {
		return entity.Out, nil
	}
	return entity.ParseDirection(s)
}

// Apply creates the seed's nodes and edges in sess and returns the id of every
// label. With attachToRoot, nodes without a directed incoming edge are
// connected to the root through a root_edge edge.
func Apply(ctx context.Context, sess *entity.Session, types Types, g *Graph, attachToRoot bool) (map[string]string, error) {
	if err := g.Validate(types, attachToRoot); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	nodes := make(map[string]entity.NodeEntity, len(g.Nodes)+1)
	ids := make(map[string]string, len(g.Nodes)+len(g.Edges)+1)

	root := func() (entity.NodeEntity, error) {
		if n, ok := nodes[RootLabel]; ok {
			return n, nil
		}
		r, err := entity.GetRoot(ctx, sess)
		if err != nil {
			return nil, err
		}
		nodes[RootLabel] = r
		ids[RootLabel] = r.ID()
		return r, nil
	}

	for _, decl := range g.Nodes {
		n, err := build[entity.NodeEntity](types, decl.Type, decl.Fields)
		if err != nil {
			return ids, fmt.Errorf("node '%s': %w", decl.Label, err)
		}
		if _, err := entity.Create(ctx, sess, n); err != nil {
			return ids, fmt.Errorf("node '%s': %w", decl.Label, err)
		}
		nodes[decl.Label] = n
		ids[decl.Label] = n.ID()
	}

	incoming := map[string]bool{}
	for _, decl := range g.Edges {
		dir, _ := direction(decl.Direction)
		ends := make([]entity.NodeEntity, 2)
		for i, label := range []string{decl.From, decl.To} {
			if label == RootLabel {
				r, err := root()
				if err != nil {
					return ids, fmt.Errorf("edge '%s': %w", decl.Label, err)
				}
				ends[i] = r
				continue
			}
			ends[i] = nodes[label]
		}

		e, err := build[entity.EdgeEntity](types, decl.Type, decl.Fields)
		if err != nil {
			return ids, fmt.Errorf("edge '%s': %w", decl.Label, err)
		}
		if err := ends[0].Connect(ctx, ends[1], e, dir); err != nil {
			return ids, fmt.Errorf("edge '%s': %w", decl.Label, err)
		}
		ids[decl.Label] = e.ID()

		switch dir {
		case entity.Out:
			incoming[decl.To] = true
		case entity.In:
			incoming[decl.From] = true
		}
	}

	if attachToRoot {
		for _, decl := range g.Nodes {
			if incoming[decl.Label] {
				continue
			}
			r, err := root()
			if err != nil {
				return ids, err
			}
			e, err := build[entity.EdgeEntity](types, g.RootEdge, nil)
			if err != nil {
				return ids, fmt.Errorf("root edge to '%s': %w", decl.Label, err)
			}
			if err := r.Connect(ctx, nodes[decl.Label], e, entity.Out); err != nil {
				return ids, fmt.Errorf("root edge to '%s': %w", decl.Label, err)
			}
		}
	}

	logger.Info("Applied seed.", "nodes", len(g.Nodes), "edges", len(g.Edges), "attach_to_root", attachToRoot)
	return ids, nil
}

// build constructs class through types and sets its fields.
func build[T entity.Entity](types Types, class string, fields map[string]any) (T, error) {
	var zero T
	v, ok := types.New(class)
	if !ok {
		return zero, fmt.Errorf("%w: %s", entity.ErrUnknownType, class)
	}
	ent, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", entity.ErrWrongType, class, v)
	}
	if err := entity.Decode(ent, fields); err != nil {
		return zero, err
	}
	return ent, nil
}
