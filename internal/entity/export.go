package entity

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/specialistvlad/osgraph/internal/store"
)

var (
	entityType        = reflect.TypeFor[Entity]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Export renders ent as its storage record.
func Export(ent Entity) store.Record {
	rec := store.Record{
		ID:      ent.ID(),
		Name:    ClassName(ent),
		Context: contextOf(ent),
	}
	switch base := ent.(type) {
	case NodeEntity:
		rec.Edges = base.node().EdgeIDs()
	case EdgeEntity:
		e := base.edge()
		rec.Source, rec.Target, rec.Bidirectional = e.SourceID(), e.TargetID(), e.Bidirectional()
	}
	return rec
}

// contextOf collects the exported fields of the struct behind v.
func contextOf(v any) map[string]any {
	out := map[string]any{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return out
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		collectFields(rv, out)
	}
	return out
}

func collectFields(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if f.Anonymous {
			if isBase(f.Type) {
				continue
			}
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				ft, fv = ft.Elem(), fv.Elem()
			}
			if ft.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
				collectFields(fv, out)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		name, skip := fieldName(f)
		if skip {
			continue
		}
		out[name] = plain(fv)
	}
}

func isBase(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflect.PointerTo(t).Implements(entityType) || reflect.PointerTo(t).Implements(reflect.TypeFor[Kinded]())
}

func fieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.String:  reflect.TypeFor[string](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// plain converts v into plain document values: basic scalars, []any and
// map[string]any. Nothing in the result aliases the entity's own memory.
func plain(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Type().Implements(textMarshalerType) && (v.Kind() != reflect.Pointer || !v.IsNil()) {
		if text, err := v.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			return string(text)
		}
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return plain(v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = plain(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			key := fmt.Sprint(k.Interface())
			if k.Kind() == reflect.String {
				key = k.String()
			}
			out[key] = plain(iter.Value())
		}
		return out
	case reflect.Struct:
		out := map[string]any{}
		collectFields(v, out)
		return out
	}
	if bt, ok := basicTypes[v.Kind()]; ok {
		return v.Convert(bt).Interface()
	}
	return fmt.Sprint(v.Interface())
}

// decodeContext populates the exported fields of ent from a stored context.
func decodeContext(ent Entity, context map[string]any) error {
	if len(context) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           ent,
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(context); err != nil {
		return fmt.Errorf("decode %s context: %w", ClassName(ent), err)
	}
	return nil
}

// Decode sets the fields of ent from fields the same way a stored context is
// loaded: json names, squashed bases, weakly typed input.
func Decode(ent Entity, fields map[string]any) error {
	return decodeContext(ent, fields)
}
