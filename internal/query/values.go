package query

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// numberString matches decoder-specific number wrappers such as json.Number.
type numberString interface {
	String() string
	Float64() (float64, error)
}

// ToValue converts a native document value into a cty.Value. Numbers of any
// Go representation become cty.Number, lists become tuples and string-keyed
// maps become objects.
func ToValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	switch tv := v.(type) {
	case cty.Value:
		return tv, nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case numberString:
		return cty.ParseNumberVal(tv.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cty.NumberIntVal(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cty.NumberUIntVal(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return cty.NilVal, fmt.Errorf("cannot compare non-finite number %v", f)
		}
		return cty.NumberFloatVal(f), nil
	case reflect.String:
		return cty.StringVal(rv.String()), nil
	case reflect.Bool:
		return cty.BoolVal(rv.Bool()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return ToValue(rv.Elem().Interface())
	}

	if list, ok := asList(v); ok {
		if len(list) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(list))
		for i, item := range list {
			ev, err := ToValue(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	}

	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		if rv.Len() == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			av, err := ToValue(iter.Value().Interface())
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			attrs[iter.Key().String()] = av
		}
		return cty.ObjectVal(attrs), nil
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		// Opaque values still compare by their printed form.
		return cty.StringVal(fmt.Sprint(v)), nil
	}
	return gocty.ToCtyValue(v, ty)
}

func equal(a, b any) (bool, error) {
	ca, err := ToValue(a)
	if err != nil {
		return false, err
	}
	cb, err := ToValue(b)
	if err != nil {
		return false, err
	}
	if ca.IsNull() || cb.IsNull() {
		return ca.IsNull() && cb.IsNull(), nil
	}
	if !ca.Type().Equals(cb.Type()) {
		return false, nil
	}
	return ca.Equals(cb).True(), nil
}

// compare orders a against b. ok is false when the two values are not
// mutually orderable (different types, or neither numbers nor strings).
func compare(a, b any) (cmp int, ok bool, err error) {
	ca, err := ToValue(a)
	if err != nil {
		return 0, false, err
	}
	cb, err := ToValue(b)
	if err != nil {
		return 0, false, err
	}
	if ca.IsNull() || cb.IsNull() {
		return 0, false, nil
	}
	switch {
	case ca.Type() == cty.Number && cb.Type() == cty.Number:
		return ca.AsBigFloat().Cmp(cb.AsBigFloat()), true, nil
	case ca.Type() == cty.String && cb.Type() == cty.String:
		return strings.Compare(ca.AsString(), cb.AsString()), true, nil
	}
	return 0, false, nil
}
