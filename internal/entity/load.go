package entity

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/query"
	"github.com/specialistvlad/osgraph/internal/store"
)

// Get loads the entity with the given id and reconstructs its registered
// type. A missing record is not an error and yields (nil, nil).
func Get(ctx context.Context, sess *Session, id string) (Entity, error) {
	parsed, err := entityid.Parse(id)
	if err != nil {
		return nil, err
	}
	proto, err := sess.newInstance(parsed.Class)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	if proto.EntityKind() != parsed.Kind {
		return nil, fmt.Errorf("get %s: %w: %s is not a %s type", id, ErrWrongType, parsed.Class, parsed.Kind)
	}

	rec, ok, err := sess.store.Get(ctx, Collection(proto), id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return rebuild(sess, proto, rec)
}

// GetAs loads the entity with the given id as T. A missing record yields the
// zero T and a nil error.
func GetAs[T any](ctx context.Context, sess *Session, id string) (T, error) {
	var zero T
	ent, err := Get(ctx, sess, id)
	if err != nil || ent == nil {
		return zero, err
	}
	typed, ok := ent.(T)
	if !ok {
		return zero, fmt.Errorf("get %s: %w: have %T, want %T", id, ErrWrongType, ent, zero)
	}
	return typed, nil
}

// Find returns every stored entity of type T matching p. Only records whose
// class is T's class are considered.
func Find[T Entity](ctx context.Context, sess *Session, p query.Predicate) ([]T, error) {
	proto, err := newOf[T]()
	if err != nil {
		return nil, err
	}
	class := ClassName(proto)
	pred := query.Eq("name", class)
	if len(p) > 0 {
		pred = query.And(pred, p)
	}

	recs, err := sess.store.Find(ctx, Collection(proto), pred)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", class, err)
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		fresh, _ := newOf[T]()
		ent, err := rebuild(sess, fresh, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, ent.(T))
	}
	return out, nil
}

func newOf[T Entity]() (T, error) {
	var zero T
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return zero, fmt.Errorf("%w: %v is not a pointer to struct", ErrWrongType, t)
	}
	return reflect.New(t.Elem()).Interface().(T), nil
}

// rebuild restores ent from rec and binds it to sess.
func rebuild(sess *Session, ent Entity, rec store.Record) (Entity, error) {
	if err := decodeContext(ent, rec.Context); err != nil {
		return nil, err
	}
	o := ent.object()
	o.id = rec.ID
	o.bind(sess, ent)
	switch base := ent.(type) {
	case NodeEntity:
		base.node().setEdgeIDs(rec.Edges)
	case EdgeEntity:
		base.edge().SetEndpoints(rec.Source, rec.Target, rec.Bidirectional)
	}
	return ent, nil
}
