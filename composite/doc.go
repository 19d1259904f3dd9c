// Package composite implements the canonical ordering protocol for
// multi-property indexes.
//
// A composite index over k properties must be one physical index no matter
// in which order a request names the properties. Tags (property names) are
// sorted into a canonical order once; values move, tags never do:
//
//	o, _ := composite.NewOrdering("region", "age")
//	o.Canonical()                           // [age region]
//	canon, _ := composite.Reorder(o, []any{"north", 30}) // [30 north]
//	orig, _ := composite.Unreorder(o, canon)             // [north 30]
//
// The canonical order and the permutation depend only on the set of tags.
// Deriving an ordering costs O(k log k); applying it costs O(k). A Resolver
// caches orderings so each caller order is derived once.
package composite
