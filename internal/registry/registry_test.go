package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/osgraph/internal/entity"
	"github.com/specialistvlad/osgraph/internal/entityid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkerBase stands in for walker.Walker, which imports this package.
type walkerBase struct{}

func (*walkerBase) EntityKind() entityid.Kind { return entityid.Walker }

type Greeter interface{ Greeting() string }

type City struct {
	entity.Node
	Name string `json:"name"`
}

func (c *City) OnTourist(ctx context.Context, t *Tourist) error {
	t.log = append(t.log, "City.OnTourist")
	return nil
}

func (c *City) OnAnyGreeter(ctx context.Context, g Greeter) error {
	return errors.New("hello " + g.Greeting())
}

type Town struct {
	entity.Node
}

type Highway struct {
	entity.Edge
}

func (h *Highway) OnInspector(ctx context.Context, i *Inspector) error { return nil }

type Tourist struct {
	walkerBase
	log []string
}

func (t *Tourist) Greeting() string { return "tourist" }

func (t *Tourist) OnCity(ctx context.Context, c *City) error {
	t.log = append(t.log, "Tourist.OnCity:"+c.Name)
	return nil
}

func (t *Tourist) ExitSummary(ctx context.Context) error {
	t.log = append(t.log, "exit")
	return nil
}

func (t *Tourist) ExitAudit(ctx context.Context) error { return nil }

type Inspector struct {
	walkerBase
}

func (i *Inspector) OnAnything(ctx context.Context, v entity.Visitable) error { return nil }

type Note struct {
	entity.Object
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	require.NoError(t, r.Register(&City{}, &Town{}, &Highway{}, &Tourist{}, &Inspector{}, &Note{}))
	r.Freeze()
	return r
}

func TestRegister_TypeInfo(t *testing.T) {
	r := newRegistry(t)

	info, ok := r.Info("Tourist")
	require.True(t, ok)
	assert.Equal(t, entityid.Walker, info.Kind)
	require.Len(t, info.Exits(), 2)
	assert.Equal(t, "ExitAudit", info.Exits()[0].Method, "exit hooks run in method-name order")
	assert.Equal(t, "ExitSummary", info.Exits()[1].Method)

	city, ok := r.Info("City")
	require.True(t, ok)
	assert.Equal(t, entityid.Node, city.Kind)
	hooks := city.Hooks()
	require.Len(t, hooks, 2)
	assert.Equal(t, "OnTourist", hooks[0].Method)
	assert.True(t, hooks[1].Wildcard)

	kind, ok := r.Kind("Highway")
	require.True(t, ok)
	assert.Equal(t, entityid.Edge, kind)

	assert.Equal(t, []string{"City", "Town"}, r.Classes(entityid.Node))
	assert.Len(t, r.Classes(), 6)
}

func TestNew_Factory(t *testing.T) {
	r := newRegistry(t)

	v, ok := r.New("City")
	require.True(t, ok)
	c, ok := v.(*City)
	require.True(t, ok)
	assert.Empty(t, c.Name)

	_, ok = r.New("Village")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	r := newRegistry(t)
	tourist, inspector := &Tourist{}, &Inspector{}
	city, town, hw := &City{Name: "Chicago"}, &Town{}, &Highway{}

	labels := func(hooks []*Hook) []string {
		var out []string
		for _, h := range hooks {
			out = append(out, h.Label())
		}
		return out
	}

	tests := []struct {
		name   string
		walker any
		target any
		want   []string
	}{
		{name: "walker, target and target wildcard", walker: tourist, target: city, want: []string{"Tourist.OnCity", "City.OnTourist", "City.OnAnyGreeter"}},
		{name: "no hooks", walker: tourist, target: town, want: nil},
		{name: "walker wildcard falls back", walker: inspector, target: town, want: []string{"Inspector.OnAnything"}},
		{name: "walker wildcard and target hook", walker: inspector, target: hw, want: []string{"Inspector.OnAnything", "Highway.OnInspector"}},
		{name: "target wildcard needs interface", walker: inspector, target: city, want: []string{"Inspector.OnAnything"}},
		{name: "unregistered types", walker: &struct{}{}, target: city, want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := labels(r.Resolve(tc.walker, tc.target))
			if len(tc.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHook_Call(t *testing.T) {
	r := newRegistry(t)
	tourist := &Tourist{}
	city := &City{Name: "Chicago"}
	ctx := context.Background()

	hooks := r.Resolve(tourist, city)
	require.Len(t, hooks, 3)

	require.NoError(t, hooks[0].Call(ctx, tourist, city))
	require.NoError(t, hooks[1].Call(ctx, city, tourist))
	err := hooks[2].Call(ctx, city, tourist)
	require.EqualError(t, err, "hello tourist")

	for _, h := range r.Exits(tourist) {
		require.NoError(t, h.Call(ctx, tourist, nil))
	}
	assert.Equal(t, []string{"Tourist.OnCity:Chicago", "City.OnTourist", "exit"}, tourist.log)
}

type badTarget struct {
	walkerBase
}

func (b *badTarget) OnWalker(ctx context.Context, w *Tourist) error { return nil }

type badSignature struct {
	walkerBase
}

func (b *badSignature) OnCity(c *City) error              { return nil }
func (b *badSignature) ExitEarly(ctx context.Context) bool { return false }

type nodeTargetsNode struct {
	entity.Node
}

func (n *nodeTargetsNode) OnCity(ctx context.Context, c *City) error { return nil }

type nodeWithExit struct {
	entity.Node
}

func (n *nodeWithExit) ExitNow(ctx context.Context) error { return nil }

type twoWildcards struct {
	walkerBase
}

func (w *twoWildcards) OnA(ctx context.Context, v entity.Visitable) error  { return nil }
func (w *twoWildcards) OnB(ctx context.Context, v entity.NodeEntity) error { return nil }

type duplicateTarget struct {
	walkerBase
}

func (w *duplicateTarget) OnCity(ctx context.Context, c *City) error      { return nil }
func (w *duplicateTarget) OnCityAgain(ctx context.Context, c *City) error { return nil }

type objectWithHook struct {
	entity.Object
}

func (o *objectWithHook) OnTourist(ctx context.Context, t *Tourist) error { return nil }

type plainStruct struct{}

type nonGraphTarget struct {
	walkerBase
}

func (w *nonGraphTarget) OnString(ctx context.Context, s *plainStruct) error { return nil }

type lowercaseIsNotAHook struct {
	walkerBase
}

func (w *lowercaseIsNotAHook) Once()   {}
func (w *lowercaseIsNotAHook) Exited() {}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		proto any
		want  string
	}{
		{name: "walker targets walker", proto: &badTarget{}, want: "walker hooks must target a node or edge type"},
		{name: "visit signature", proto: &badSignature{}, want: "must have signature func(context.Context, T) error"},
		{name: "exit signature", proto: &badSignature{}, want: "must have signature func(context.Context) error"},
		{name: "node targets node", proto: &nodeTargetsNode{}, want: "node hooks must target a walker type"},
		{name: "exit on node", proto: &nodeWithExit{}, want: "only walkers may declare exit hooks"},
		{name: "two wildcards", proto: &twoWildcards{}, want: "already has wildcard hook 'OnA'"},
		{name: "duplicate target", proto: &duplicateTarget{}, want: "already handled by 'OnCity'"},
		{name: "object hook", proto: &objectWithHook{}, want: "objects are never visited"},
		{name: "non graph target", proto: &nonGraphTarget{}, want: "neither a graph type nor an interface"},
		{name: "not a graph type", proto: &plainStruct{}, want: "must be a pointer to a struct embedding"},
		{name: "value instead of pointer", proto: City{}, want: "must be a pointer to a struct embedding"},
		{name: "nil", proto: nil, want: "cannot register nil"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			err := r.Register(tc.proto)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "registry validation failed:\n- ")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRegister_NotHooks(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&lowercaseIsNotAHook{}))
	info, ok := r.Info("lowercaseIsNotAHook")
	require.True(t, ok)
	assert.Empty(t, info.Hooks())
	assert.Empty(t, info.Exits())
}

func TestRegister_AllOrNothing(t *testing.T) {
	r := New()
	err := r.Register(&City{}, &badTarget{})
	require.Error(t, err)

	_, ok := r.Info("City")
	assert.False(t, ok, "a failed batch registers nothing")
}

func TestRegister_Duplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&City{}))

	err := r.Register(&City{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class name already registered")

	err = New().Register(&Town{}, &Town{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "class name already registered")
}

func TestRegister_ReservedRoot(t *testing.T) {
	err := New().Register(&entity.Root{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is reserved")
}

func TestFreeze(t *testing.T) {
	r := New()
	r.Freeze()
	assert.ErrorIs(t, r.Register(&City{}), ErrFrozen)
}

func TestMustRegister_Panics(t *testing.T) {
	assert.Panics(t, func() { New().MustRegister(&badTarget{}) })
	assert.NotPanics(t, func() { New().MustRegister(&City{}) })
}

type testModule struct{}

func (testModule) Register(r *Registry) { r.MustRegister(&City{}, &Tourist{}) }

func TestRegisterModules(t *testing.T) {
	r := New()
	r.RegisterModules(testModule{})
	assert.Equal(t, []string{"City", "Tourist"}, r.Classes())
}
