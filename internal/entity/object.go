package entity

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/osgraph/internal/ctxlog"
	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/specialistvlad/osgraph/internal/store"
)

// Kinded is implemented by every type that takes part in the graph: the
// entity bases and the walker base. It lets packages classify user types
// without importing them.
type Kinded interface {
	EntityKind() entityid.Kind
}

// Entity is implemented by every type embedding Object, Node or Edge.
type Entity interface {
	Kinded
	ID() string
	object() *Object
}

// Object is the generic persistable base. Types embedding it are stored in
// the "object" collection unless they implement Collection() string.
type Object struct {
	id   string
	sess *Session
	self Entity
}

// EntityKind reports entityid.Object.
func (o *Object) EntityKind() entityid.Kind { return entityid.Object }

// ID returns the entity id, or "" before the entity is created.
func (o *Object) ID() string { return o.id }

// Session returns the session the entity is bound to, or nil.
func (o *Object) Session() *Session { return o.sess }

func (o *Object) object() *Object { return o }

func (o *Object) bind(sess *Session, self Entity) {
	o.sess = sess
	o.self = self
}

func (o *Object) bound() (Entity, *Session, error) {
	if o.sess == nil || o.self == nil {
		return nil, nil, ErrUnbound
	}
	return o.self, o.sess, nil
}

// Save writes the entity's current snapshot synchronously.
func (o *Object) Save(ctx context.Context) error {
	self, _, err := o.bound()
	if err != nil {
		return err
	}
	return Save(ctx, self)
}

// Destroy deletes the entity's record.
func (o *Object) Destroy(ctx context.Context) error {
	self, sess, err := o.bound()
	if err != nil {
		return err
	}
	if _, err := sess.writer.Delete(ctx, Collection(self), o.id); err != nil {
		return fmt.Errorf("destroy %s: %w", o.id, err)
	}
	return nil
}

type collectionNamer interface {
	Collection() string
}

type classNamer interface {
	ClassName() string
}

// ClassName returns the class name of v: its Go type name, unless the type
// overrides it with a ClassName() method.
func ClassName(v any) string {
	if cn, ok := v.(classNamer); ok {
		return cn.ClassName()
	}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Collection returns the store collection that holds ent.
func Collection(ent Entity) string {
	switch ent.EntityKind() {
	case entityid.Node:
		return store.NodeCollection
	case entityid.Edge:
		return store.EdgeCollection
	}
	if cn, ok := ent.(collectionNamer); ok && cn.Collection() != "" {
		return cn.Collection()
	}
	return store.ObjectCollection
}

// Create binds obj to sess, assigns an id if it has none and enqueues a save
// of its initial snapshot. The entity is usable immediately; call
// Session.Flush to wait for durability.
func Create[T Entity](ctx context.Context, sess *Session, obj T) (T, error) {
	attach(sess, obj)
	if err := Commit(obj); err != nil {
		return obj, fmt.Errorf("create %s: %w", obj.ID(), err)
	}
	ctxlog.FromContext(ctx).Debug("Created entity.", "id", obj.ID())
	return obj, nil
}

// attach binds ent to sess and generates its id when missing.
func attach(sess *Session, ent Entity) {
	o := ent.object()
	o.bind(sess, ent)
	if o.id == "" {
		o.id = entityid.Generate(ent.EntityKind(), ClassName(ent))
	}
}

// Save exports ent and writes it synchronously.
func Save(ctx context.Context, ent Entity) error {
	_, sess, err := ent.object().bound()
	if err != nil {
		return err
	}
	if _, err := sess.writer.Save(ctx, Collection(ent), Export(ent)); err != nil {
		return fmt.Errorf("save %s: %w", ent.ID(), err)
	}
	return nil
}

// Commit enqueues the current snapshot of ent on the background writer.
func Commit(ent Entity) error {
	_, sess, err := ent.object().bound()
	if err != nil {
		return err
	}
	return sess.writer.Enqueue(Collection(ent), Export(ent))
}

// Mutate applies fn to ent and commits the resulting snapshot.
func Mutate[T Entity](obj T, fn func(T)) error {
	fn(obj)
	return Commit(obj)
}
