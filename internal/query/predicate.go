package query

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidPredicate is returned when a predicate uses an unknown operator or
// an operand of the wrong shape.
var ErrInvalidPredicate = errors.New("invalid predicate")

// Predicate is a per-document filter. An empty predicate matches everything.
type Predicate map[string]any

// Op is a comparison operator name without the '$' prefix.
type Op string

const (
	OpEq  Op = "eq"
	OpNe  Op = "ne"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	OpIn  Op = "in"
	OpNin Op = "nin"
)

var knownOps = map[Op]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {}, OpIn: {}, OpNin: {},
}

// Eq builds a single-field equality predicate.
func Eq(path string, v any) Predicate {
	return Predicate{path: v}
}

// Where builds a single-field predicate with one operator.
func Where(path string, op Op, v any) Predicate {
	return Predicate{path: map[string]any{"$" + string(op): v}}
}

// And combines predicates so that all of them must hold.
func And(ps ...Predicate) Predicate {
	return Predicate{"$and": ps}
}

// Or combines predicates so that at least one of them must hold.
func Or(ps ...Predicate) Predicate {
	return Predicate{"$or": ps}
}

// Match reports whether doc satisfies every clause of p.
func Match(doc map[string]any, p Predicate) (bool, error) {
	// Sorted keys keep error reporting deterministic.
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		cond := p[key]
		var (
			ok  bool
			err error
		)
		switch key {
		case "$and":
			ok, err = matchLogical(doc, cond, true)
		case "$or":
			ok, err = matchLogical(doc, cond, false)
		default:
			val, found := Lookup(doc, key)
			ok, err = matchField(val, found, cond)
		}
		if err != nil {
			return false, fmt.Errorf("field %q: %w", key, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchLogical(doc map[string]any, cond any, all bool) (bool, error) {
	subs, err := subPredicates(cond)
	if err != nil {
		return false, err
	}
	if len(subs) == 0 {
		return false, fmt.Errorf("%w: logical operator needs at least one predicate", ErrInvalidPredicate)
	}
	for _, sub := range subs {
		ok, err := Match(doc, sub)
		if err != nil {
			return false, err
		}
		if all && !ok {
			return false, nil
		}
		if !all && ok {
			return true, nil
		}
	}
	return all, nil
}

func subPredicates(cond any) ([]Predicate, error) {
	switch v := cond.(type) {
	case []Predicate:
		return v, nil
	case []map[string]any:
		out := make([]Predicate, len(v))
		for i, m := range v {
			out[i] = Predicate(m)
		}
		return out, nil
	case []any:
		out := make([]Predicate, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Predicate(m))
			case Predicate:
				out = append(out, m)
			default:
				return nil, fmt.Errorf("%w: logical operand must be an object, got %T", ErrInvalidPredicate, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: logical operator expects a list, got %T", ErrInvalidPredicate, cond)
	}
}

func matchField(val any, found bool, cond any) (bool, error) {
	ops, isOps, err := operators(cond)
	if err != nil {
		return false, err
	}
	if !isOps {
		return evalOp(OpEq, val, found, cond)
	}
	for _, op := range sortedOps(ops) {
		ok, err := evalOp(op, val, found, ops[op])
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// operators interprets cond as an operator map. A map counts as operators only
// when every key is a known operator; a map mixing operators and plain keys
// is rejected.
func operators(cond any) (map[Op]any, bool, error) {
	var m map[string]any
	switch v := cond.(type) {
	case map[string]any:
		m = v
	case Predicate:
		m = v
	default:
		return nil, false, nil
	}
	if len(m) == 0 {
		return nil, false, nil
	}

	ops := make(map[Op]any, len(m))
	plain := 0
	for k, v := range m {
		name := Op(strings.TrimPrefix(k, "$"))
		if _, ok := knownOps[name]; ok {
			ops[name] = v
			continue
		}
		if strings.HasPrefix(k, "$") {
			return nil, false, fmt.Errorf("%w: unknown operator %q", ErrInvalidPredicate, k)
		}
		plain++
	}
	switch {
	case plain == len(m):
		return nil, false, nil
	case plain > 0:
		return nil, false, fmt.Errorf("%w: operators mixed with plain keys", ErrInvalidPredicate)
	}
	return ops, true, nil
}

func sortedOps(ops map[Op]any) []Op {
	out := make([]Op, 0, len(ops))
	for op := range ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func evalOp(op Op, val any, found bool, operand any) (bool, error) {
	switch op {
	case OpEq:
		if !found {
			return operand == nil, nil
		}
		return equalOrContains(val, operand)
	case OpNe:
		if !found {
			return operand != nil, nil
		}
		eq, err := equalOrContains(val, operand)
		return !eq, err
	case OpGt, OpGte, OpLt, OpLte:
		if !found {
			return false, nil
		}
		cmp, ok, err := compare(val, operand)
		if err != nil || !ok {
			return false, err
		}
		switch op {
		case OpGt:
			return cmp > 0, nil
		case OpGte:
			return cmp >= 0, nil
		case OpLt:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case OpIn, OpNin:
		list, ok := asList(operand)
		if !ok {
			return false, fmt.Errorf("%w: $%s expects a list, got %T", ErrInvalidPredicate, op, operand)
		}
		if !found {
			return op == OpNin, nil
		}
		in := false
		for _, candidate := range list {
			eq, err := equalOrContains(val, candidate)
			if err != nil {
				return false, err
			}
			if eq {
				in = true
				break
			}
		}
		if op == OpIn {
			return in, nil
		}
		return !in, nil
	}
	return false, fmt.Errorf("%w: unknown operator %q", ErrInvalidPredicate, op)
}

// equalOrContains follows document-store semantics: a list-valued field
// matches a scalar operand if any element equals it.
func equalOrContains(val, operand any) (bool, error) {
	eq, err := equal(val, operand)
	if err != nil || eq {
		return eq, err
	}
	if _, operandIsList := asList(operand); operandIsList {
		return false, nil
	}
	items, ok := asList(val)
	if !ok {
		return false, nil
	}
	for _, item := range items {
		if eq, err := equal(item, operand); err != nil || eq {
			return eq, err
		}
	}
	return false, nil
}

func asList(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar for comparison purposes.
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Lookup resolves a dotted path inside a document. Numeric segments index
// into lists.
func Lookup(doc map[string]any, path string) (any, bool) {
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case Predicate:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		default:
			list, ok := asList(cur)
			if !ok {
				return nil, false
			}
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(list) {
				return nil, false
			}
			cur = list[idx]
		}
	}
	return cur, true
}
