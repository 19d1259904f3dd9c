// Package propdex provides secondary property indexing for entity stores.
//
// A property index maps each distinct value of a property to the set of
// entities currently holding it. Values of any Go type are indexed by a
// 128-bit content digest (package digest), so two values that hash alike are
// the same key. Entity sets are compressed Roaring bitmaps (package index).
//
// # Quick Start
//
//	r := propdex.New()
//
//	region := propdex.NewProperty[string]("region")
//	age := propdex.NewProperty[int]("age")
//
//	propdex.Insert(r, region, "eu", 7)
//	propdex.Insert(r, age, 30, 7)
//
//	ids, ok := propdex.Lookup(r, region, "eu")
//
// # Typed and Erased Access
//
// Register returns the statically typed index of a property. The registry
// keeps every index behind the type-erased index.Index interface, which works
// on digests only:
//
//	d := digest.Of("eu")
//	ids, ok := r.GetWithHash("region", d)
//	added, err := r.InsertWithHash("region", d, 8) // index.ErrNoSuchEntry if "eu" is unseen
//
// Erased inserts never create entries; only a typed insert can, because only
// it holds a key to store. Properties of interface type also hash the dynamic
// type of their values; take their digests from r.Index(name) via KeyDigest.
//
// # Composite Indexes
//
// A composite indexes a tuple of property values. The properties can be named
// in any order; all orders of one set share one physical index, keyed in
// canonical (sorted) order:
//
//	c, _ := r.RegisterComposite("region", "age")
//	v, _ := c.Bind("age", "region")
//	v.Insert(7, 30, "eu")
//
//	ids, ok, err := r.QueryComposite(propdex.F("region", "eu"), propdex.F("age", 30))
//
// # Bulk Loading
//
// Load inserts a batch of records, filling each index from one worker:
//
//	err := r.Load(ctx, []propdex.Record{
//	    {ID: 1, Fields: []propdex.Field{propdex.F("region", "eu"), propdex.F("age", 30)}},
//	})
//
// # Observability
//
// Use WithLogger for structured logging and WithMetricsCollector for metrics;
// package prommetrics exports metrics to Prometheus.
//
// # Concurrency
//
// Registry is safe for concurrent use. Lookups return snapshots. Indexes
// obtained through Register, Typed or Index are not synchronized.
package propdex
