package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/entityid"
)

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry: frozen")

// Module is the interface that feature modules implement to register their
// types.
type Module interface {
	Register(r *Registry)
}

// TypeInfo is the immutable registration record of one type.
type TypeInfo struct {
	Class string
	Kind  entityid.Kind
	Type  reflect.Type // pointer to the struct type

	visit    map[reflect.Type]*Hook
	wildcard *Hook
	exits    []*Hook
}

// Exits returns the exit hooks of a walker type in method-name order.
func (ti *TypeInfo) Exits() []*Hook {
	return append([]*Hook(nil), ti.exits...)
}

// Hooks returns all visit hooks of the type, wildcard last.
func (ti *TypeInfo) Hooks() []*Hook {
	out := make([]*Hook, 0, len(ti.visit)+1)
	for _, h := range ti.visit {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	if ti.wildcard != nil {
		out = append(out, ti.wildcard)
	}
	return out
}

// Registry holds the registered types of a single application instance.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*TypeInfo
	byType map[reflect.Type]*TypeInfo
	frozen bool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*TypeInfo),
		byType: make(map[reflect.Type]*TypeInfo),
	}
}

// Register scans and registers the given prototypes, e.g. &City{}. Either all
// of them are registered or, on any error, none are.
func (r *Registry) Register(protos ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrFrozen
	}

	var errs []string
	infos := make([]*TypeInfo, 0, len(protos))
	pending := make(map[string]bool)
	for _, proto := range protos {
		info, perrs := scan(proto)
		if len(perrs) > 0 {
			errs = append(errs, perrs...)
			continue
		}
		if _, exists := r.byName[info.Class]; exists || pending[info.Class] {
			errs = append(errs, fmt.Sprintf("type '%s': class name already registered", info.Class))
			continue
		}
		pending[info.Class] = true
		infos = append(infos, info)
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	for _, info := range infos {
		slog.Debug("Registering graph type.", "class", info.Class, "kind", info.Kind, "hooks", len(info.visit), "exits", len(info.exits))
		r.byName[info.Class] = info
		r.byType[info.Type] = info
	}
	return nil
}

// MustRegister is Register that panics on error. Hook configuration mistakes
// are programming errors and are meant to stop the process at startup.
func (r *Registry) MustRegister(protos ...any) {
	if err := r.Register(protos...); err != nil {
		panic(err)
	}
}

// RegisterModules lets each module register its types.
func (r *Registry) RegisterModules(mods ...Module) {
	for _, m := range mods {
		m.Register(r)
	}
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Lookup returns the registration of v's type.
func (r *Registry) Lookup(v any) (*TypeInfo, bool) {
	if v == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byType[reflect.TypeOf(v)]
	return info, ok
}

// Info returns the registration of a class.
func (r *Registry) Info(class string) (*TypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byName[class]
	return info, ok
}

// New returns a fresh zero value of a registered class. It implements
// entity.Factory.
func (r *Registry) New(class string) (any, bool) {
	info, ok := r.Info(class)
	if !ok {
		return nil, false
	}
	return reflect.New(info.Type.Elem()).Interface(), true
}

// Kind returns the kind of a registered class.
func (r *Registry) Kind(class string) (entityid.Kind, bool) {
	info, ok := r.Info(class)
	if !ok {
		return 0, false
	}
	return info.Kind, true
}

// Classes returns the registered class names of the given kind, sorted. With
// no kinds, every class is returned.
func (r *Registry) Classes(kinds ...entityid.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for name, info := range r.byName {
		if len(kinds) == 0 || containsKind(kinds, info.Kind) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func containsKind(kinds []entityid.Kind, k entityid.Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

// Resolve returns the hooks to run when walker visits target, in order:
//
//  1. the walker's hook for target's concrete type, or else the walker's
//     wildcard hook if target implements its interface;
//  2. the target's hook for the walker's concrete type;
//  3. the target's wildcard hook, if the walker implements its interface.
func (r *Registry) Resolve(walker, target any) []*Hook {
	wt, tt := reflect.TypeOf(walker), reflect.TypeOf(target)
	wi, _ := r.Lookup(walker)
	ti, _ := r.Lookup(target)

	var hooks []*Hook
	if wi != nil {
		if h, ok := wi.visit[tt]; ok {
			hooks = append(hooks, h)
		} else if wi.wildcard != nil && tt.Implements(wi.wildcard.Target) {
			hooks = append(hooks, wi.wildcard)
		}
	}
	if ti != nil {
		if h, ok := ti.visit[wt]; ok {
			hooks = append(hooks, h)
		}
		if ti.wildcard != nil && wt.Implements(ti.wildcard.Target) {
			hooks = append(hooks, ti.wildcard)
		}
	}
	return hooks
}

// Exits returns the exit hooks of walker's type.
func (r *Registry) Exits(walker any) []*Hook {
	info, ok := r.Lookup(walker)
	if !ok {
		return nil
	}
	return info.Exits()
}

var _ entity.Factory = (*Registry)(nil)
