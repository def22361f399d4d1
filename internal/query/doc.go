// Package query evaluates Mongo-style predicates against stored documents.
//
// A Predicate maps dotted field paths (e.g. "context.name") to either a
// literal, which requires equality, or an operator map such as
// {"$gte": 3, "$lt": 10}. Supported operators are eq, ne, gt, gte, lt, lte,
// in and nin, with or without the leading '$'. The logical operators $and and
// $or combine nested predicates.
//
// Values are compared through go-cty so that numbers compare numerically no
// matter which Go type a storage backend decoded them into.
package query
