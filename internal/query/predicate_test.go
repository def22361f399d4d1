package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDoc() map[string]any {
	return map[string]any{
		"id":   "n:City:0123456789abcdef01234567",
		"name": "City",
		"context": map[string]any{
			"name":       "Chicago",
			"population": 2700000,
			"area":       float64(606.1),
			"tags":       []any{"midwest", "lake"},
			"mayor": map[string]any{
				"name": "Someone",
				"term": int8(2),
			},
		},
		"edges": []string{"e:Highway:aaaaaaaaaaaaaaaaaaaaaaaa"},
	}
}

func TestMatch(t *testing.T) {
	testCases := []struct {
		name     string
		pred     Predicate
		expected bool
	}{
		{name: "empty predicate matches all", pred: Predicate{}, expected: true},
		{name: "top-level equality", pred: Eq("name", "City"), expected: true},
		{name: "nested equality", pred: Eq("context.name", "Chicago"), expected: true},
		{name: "nested equality mismatch", pred: Eq("context.name", "Boston"), expected: false},
		{name: "deep nested numeric equality across types", pred: Eq("context.mayor.term", 2.0), expected: true},
		{name: "int vs float equality", pred: Eq("context.population", float64(2700000)), expected: true},
		{name: "gt", pred: Where("context.population", OpGt, 1000000), expected: true},
		{name: "gte equal", pred: Where("context.population", OpGte, 2700000), expected: true},
		{name: "lt false", pred: Where("context.area", OpLt, 600), expected: false},
		{name: "lte", pred: Where("context.area", OpLte, 606.1), expected: true},
		{name: "string ordering", pred: Where("context.name", OpGt, "Boston"), expected: true},
		{name: "ordering across types fails", pred: Where("context.name", OpGt, 5), expected: false},
		{name: "ne", pred: Where("context.name", OpNe, "Boston"), expected: true},
		{name: "in", pred: Where("context.name", OpIn, []any{"Boston", "Chicago"}), expected: true},
		{name: "in miss", pred: Where("context.name", OpIn, []string{"Boston"}), expected: false},
		{name: "nin", pred: Where("context.name", OpNin, []string{"Boston"}), expected: true},
		{name: "list field contains scalar", pred: Eq("context.tags", "lake"), expected: true},
		{name: "string list field contains scalar", pred: Eq("edges", "e:Highway:aaaaaaaaaaaaaaaaaaaaaaaa"), expected: true},
		{name: "list index access", pred: Eq("context.tags.0", "midwest"), expected: true},
		{name: "operator without dollar", pred: Predicate{"context.population": map[string]any{"gt": 1, "lt": 5000000}}, expected: true},
		{name: "missing field fails gt", pred: Where("context.missing", OpGt, 0), expected: false},
		{name: "missing field fails gte", pred: Where("context.missing", OpGte, 0), expected: false},
		{name: "missing field fails lt", pred: Where("context.missing", OpLt, 0), expected: false},
		{name: "missing field fails lte", pred: Where("context.missing", OpLte, 0), expected: false},
		{name: "missing field fails in", pred: Where("context.missing", OpIn, []any{nil, 1}), expected: false},
		{name: "missing field passes nin", pred: Where("context.missing", OpNin, []any{1}), expected: true},
		{name: "missing field fails eq", pred: Eq("context.missing", "x"), expected: false},
		{name: "and", pred: And(Eq("name", "City"), Where("context.area", OpGt, 1)), expected: true},
		{name: "and short-circuits false", pred: And(Eq("name", "City"), Eq("name", "Town")), expected: false},
		{name: "or", pred: Or(Eq("name", "Town"), Eq("context.name", "Chicago")), expected: true},
		{name: "literal map equality", pred: Eq("context.mayor", map[string]any{"name": "Someone", "term": 2}), expected: true},
	}

	doc := sampleDoc()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := Match(doc, tc.pred)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ok)
		})
	}
}

func TestMatch_InvalidPredicates(t *testing.T) {
	testCases := []struct {
		name string
		pred Predicate
	}{
		{name: "unknown operator", pred: Predicate{"context.name": map[string]any{"$regex": "C.*"}}},
		{name: "mixed operators and keys", pred: Predicate{"context.mayor": map[string]any{"$eq": 1, "name": "x"}}},
		{name: "in without list", pred: Where("context.name", OpIn, "Chicago")},
		{name: "and without list", pred: Predicate{"$and": "nope"}},
		{name: "empty or", pred: Predicate{"$or": []Predicate{}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Match(sampleDoc(), tc.pred)
			require.ErrorIs(t, err, ErrInvalidPredicate)
		})
	}
}

func TestLookup(t *testing.T) {
	doc := sampleDoc()

	v, ok := Lookup(doc, "context.mayor.name")
	require.True(t, ok)
	assert.Equal(t, "Someone", v)

	_, ok = Lookup(doc, "context.tags.9")
	assert.False(t, ok)

	_, ok = Lookup(doc, "context.name.first")
	assert.False(t, ok)
}
