package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/query"
	"github.com/specialistvlad/osgraph/internal/seed"
	"github.com/specialistvlad/osgraph/internal/store"
	"github.com/specialistvlad/osgraph/internal/walker"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Seed loads the seed files under paths and applies them. Entry nodes are
// attached to the root when the seed declares a root_edge.
func (a *App) Seed(ctx context.Context, paths ...string) (map[string]string, error) {
	ctx = a.Context(ctx)
	g, err := seed.Load(ctx, paths...)
	if err != nil {
		return nil, err
	}
	ids, err := seed.Apply(ctx, a.session, a.registry, g, g.RootEdge != "")
	if err != nil {
		return nil, err
	}
	if err := a.session.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush seed: %w", err)
	}
	return ids, nil
}

// Walk spawns a fresh walker of class at the entity with id from, or at the
// root node when from is empty, and returns its response.
func (a *App) Walk(ctx context.Context, class, from string) (*walker.Response, error) {
	ctx = a.Context(ctx)
	if kind, ok := a.registry.Kind(class); !ok || kind != entityid.Walker {
		return nil, fmt.Errorf("'%s' is not a registered walker (walkers: %v)", class, a.registry.Classes(entityid.Walker))
	}
	v, _ := a.registry.New(class)
	runner, ok := v.(walker.Runner)
	if !ok {
		return nil, fmt.Errorf("'%s' does not embed walker.Walker", class)
	}
	runner, err := walker.New(a.session, a.registry, runner)
	if err != nil {
		return nil, err
	}

	var start entity.Visitable
	if from != "" {
		ent, err := entity.Get(ctx, a.session, from)
		if err != nil {
			return nil, err
		}
		if ent == nil {
			return nil, fmt.Errorf("start %s: %w", from, ErrNotFound)
		}
		if start, ok = ent.(entity.Visitable); !ok {
			return nil, fmt.Errorf("start %s: objects cannot be visited", from)
		}
	}

	a.logger.Info("Walking graph.", "walker", runner.ID(), "from", from)
	resp, err := runner.Spawn(ctx, start)
	if err != nil {
		return nil, err
	}
	if err := a.session.Flush(ctx); err != nil {
		return resp, fmt.Errorf("flush after walk: %w", err)
	}
	a.logger.Info("Walk finished.", "walker", runner.ID(), "state", runner.State().String(), "status", resp.Status())
	return resp, nil
}

// Get returns the stored record of the entity with id.
func (a *App) Get(ctx context.Context, id string) (store.Record, error) {
	ent, err := entity.Get(a.Context(ctx), a.session, id)
	if err != nil {
		return store.Record{}, err
	}
	if ent == nil {
		return store.Record{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return entity.Export(ent), nil
}

// Find returns the records of collection matching p.
func (a *App) Find(ctx context.Context, collection string, p query.Predicate) ([]store.Record, error) {
	if err := a.session.Flush(ctx); err != nil {
		return nil, err
	}
	return a.store.Find(a.Context(ctx), collection, p)
}
