package store

import (
	"maps"
	"slices"
)

// Record is the storage representation of an entity. Which of the optional
// fields are meaningful depends on the entity kind:
//
//	node:   {id, name, context, edges}
//	edge:   {id, name, context, source, target, bidirectional}
//	object: {id, name, context}
type Record struct {
	ID            string         `json:"id" msgpack:"id"`
	Name          string         `json:"name" msgpack:"name"`
	Context       map[string]any `json:"context" msgpack:"context"`
	Edges         []string       `json:"edges,omitempty" msgpack:"edges,omitempty"`
	Source        string         `json:"source,omitempty" msgpack:"source,omitempty"`
	Target        string         `json:"target,omitempty" msgpack:"target,omitempty"`
	Bidirectional bool           `json:"bidirectional,omitempty" msgpack:"bidirectional,omitempty"`
}

// IsEdge reports whether the record carries edge endpoints.
func (r Record) IsEdge() bool {
	return r.Source != "" || r.Target != ""
}

// Document renders the record in its wire shape, which is what query
// predicates are evaluated against.
func (r Record) Document() map[string]any {
	doc := map[string]any{
		"id":      r.ID,
		"name":    r.Name,
		"context": r.contextOrEmpty(),
	}
	switch {
	case r.IsEdge():
		doc["source"] = r.Source
		doc["target"] = r.Target
		doc["bidirectional"] = r.Bidirectional
	case r.Edges != nil:
		edges := make([]any, len(r.Edges))
		for i, e := range r.Edges {
			edges[i] = e
		}
		doc["edges"] = edges
	}
	return doc
}

func (r Record) contextOrEmpty() map[string]any {
	if r.Context == nil {
		return map[string]any{}
	}
	return r.Context
}

// Clone returns a deep copy of the record, so that callers never share
// mutable maps or slices with a backend.
func (r Record) Clone() Record {
	out := r
	out.Context = cloneMap(r.Context)
	if r.Edges != nil {
		out.Edges = slices.Clone(r.Edges)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(tv)
	default:
		return v
	}
}
