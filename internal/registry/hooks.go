package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/specialistvlad/osgraph/internal/entityid"
)

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// Hook is a method bound to a target type at registration time.
type Hook struct {
	Class  string
	Method string
	// Owner is the kind of the declaring type. Walker-owned hooks receive
	// the visited element; node and edge hooks receive the walker.
	Owner entityid.Kind
	// Target is the parameter type of a visit hook: a concrete pointer type
	// or, for wildcards, an interface. Nil for exit hooks.
	Target   reflect.Type
	Wildcard bool
	Exit     bool

	fn reflect.Value // method expression, receiver first
}

// Label identifies the hook in error reports, e.g. "Tourist.OnCity".
func (h *Hook) Label() string {
	return h.Class + "." + h.Method
}

// Call invokes the hook on recv. For visit hooks arg is the other party of
// the visit; exit hooks ignore it.
func (h *Hook) Call(ctx context.Context, recv, arg any) error {
	args := []reflect.Value{reflect.ValueOf(recv), reflect.ValueOf(ctx)}
	if !h.Exit {
		av := reflect.ValueOf(arg)
		if !av.IsValid() {
			av = reflect.Zero(h.Target)
		}
		args = append(args, av)
	}
	out := h.fn.Call(args)
	if err, _ := out[0].Interface().(error); err != nil {
		return err
	}
	return nil
}

// hookKind classifies a method name. It returns "" for ordinary methods.
func hookKind(name string) string {
	for _, prefix := range []string{"On", "Exit"} {
		rest, ok := strings.CutPrefix(name, prefix)
		if ok && rest != "" && rest[0] >= 'A' && rest[0] <= 'Z' {
			return prefix
		}
	}
	return ""
}

func newVisitHook(class string, owner entityid.Kind, m reflect.Method) (*Hook, error) {
	ft := m.Type
	if ft.NumIn() != 3 || ft.In(1) != contextType || ft.NumOut() != 1 || ft.Out(0) != errorType {
		return nil, fmt.Errorf("visit hook '%s.%s' must have signature func(context.Context, T) error, got %s", class, m.Name, signature(ft))
	}
	target := ft.In(2)
	return &Hook{
		Class:    class,
		Method:   m.Name,
		Owner:    owner,
		Target:   target,
		Wildcard: target.Kind() == reflect.Interface,
		fn:       m.Func,
	}, nil
}

func newExitHook(class string, m reflect.Method) (*Hook, error) {
	ft := m.Type
	if ft.NumIn() != 2 || ft.In(1) != contextType || ft.NumOut() != 1 || ft.Out(0) != errorType {
		return nil, fmt.Errorf("exit hook '%s.%s' must have signature func(context.Context) error, got %s", class, m.Name, signature(ft))
	}
	return &Hook{Class: class, Method: m.Name, Owner: entityid.Walker, Exit: true, fn: m.Func}, nil
}

// signature renders a method type without its receiver.
func signature(ft reflect.Type) string {
	in := make([]reflect.Type, 0, ft.NumIn())
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, ft.NumOut())
	for i := range out {
		out[i] = ft.Out(i)
	}
	return reflect.FuncOf(in, out, ft.IsVariadic()).String()
}
