package registry

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/entityid"
)

var kindedType = reflect.TypeFor[entity.Kinded]()

// kindOf reports the graph kind of a pointer-to-struct type.
func kindOf(t reflect.Type) (entityid.Kind, bool) {
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct || !t.Implements(kindedType) {
		return 0, false
	}
	return reflect.New(t.Elem()).Interface().(entity.Kinded).EntityKind(), true
}

// scan builds the TypeInfo of proto, collecting every configuration error.
func scan(proto any) (*TypeInfo, []string) {
	t := reflect.TypeOf(proto)
	if t == nil {
		return nil, []string{"cannot register nil"}
	}
	kind, ok := kindOf(t)
	if !ok {
		return nil, []string{fmt.Sprintf("type '%s': must be a pointer to a struct embedding a node, edge, object or walker base", t)}
	}

	info := &TypeInfo{
		Class: entity.ClassName(proto),
		Kind:  kind,
		Type:  t,
		visit: make(map[reflect.Type]*Hook),
	}
	if info.Class == "" {
		return nil, []string{fmt.Sprintf("type '%s': anonymous types cannot be registered", t)}
	}
	if info.Class == entityid.RootClass {
		return nil, []string{fmt.Sprintf("type '%s': class name '%s' is reserved", t, entityid.RootClass)}
	}

	var errs []string
	// Method returns methods in lexicographic order, which fixes exit hook
	// order.
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		switch hookKind(m.Name) {
		case "On":
			if err := info.addVisit(m); err != nil {
				errs = append(errs, err.Error())
			}
		case "Exit":
			if err := info.addExit(m); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	return info, errs
}

func (ti *TypeInfo) addVisit(m reflect.Method) error {
	if ti.Kind == entityid.Object {
		return fmt.Errorf("visit hook '%s.%s': objects are never visited and cannot declare hooks", ti.Class, m.Name)
	}
	h, err := newVisitHook(ti.Class, ti.Kind, m)
	if err != nil {
		return err
	}

	if h.Wildcard {
		if ti.wildcard != nil {
			return fmt.Errorf("visit hook '%s.%s': type already has wildcard hook '%s'", ti.Class, m.Name, ti.wildcard.Method)
		}
		ti.wildcard = h
		return nil
	}

	targetKind, ok := kindOf(h.Target)
	if !ok {
		return fmt.Errorf("visit hook '%s.%s': target %s is neither a graph type nor an interface", ti.Class, m.Name, h.Target)
	}
	switch ti.Kind {
	case entityid.Walker:
		if targetKind != entityid.Node && targetKind != entityid.Edge {
			return fmt.Errorf("visit hook '%s.%s': walker hooks must target a node or edge type, %s is a %s", ti.Class, m.Name, h.Target, targetKind)
		}
	case entityid.Node, entityid.Edge:
		if targetKind != entityid.Walker {
			return fmt.Errorf("visit hook '%s.%s': %s hooks must target a walker type, %s is a %s", ti.Class, m.Name, ti.Kind, h.Target, targetKind)
		}
	}
	if prev, dup := ti.visit[h.Target]; dup {
		return fmt.Errorf("visit hook '%s.%s': target %s already handled by '%s'", ti.Class, m.Name, h.Target, prev.Method)
	}
	ti.visit[h.Target] = h
	return nil
}

func (ti *TypeInfo) addExit(m reflect.Method) error {
	if ti.Kind != entityid.Walker {
		return fmt.Errorf("exit hook '%s.%s': only walkers may declare exit hooks", ti.Class, m.Name)
	}
	h, err := newExitHook(ti.Class, m)
	if err != nil {
		return err
	}
	ti.exits = append(ti.exits, h)
	return nil
}
