// Package index provides secondary property indexes.
//
// An index maps values of one property type to the set of entities that
// currently hold that value. There are two access modes:
//
//   - Typed[T]: statically typed API used when the property type is known.
//   - Index: type-erased API keyed only by content digest, implemented by
//     every Typed[T], used by registries that hold many heterogeneous indexes.
//
// # Keys and Digests
//
// Keys are identified by their 128-bit content digest (see package digest).
// The table places entries by the 64-bit placement key and confirms matches
// by comparing full digests:
//
//	Table: map[placement][]*Entry    - O(1) amortized insert/lookup
//	Entry: (key copy, digest, set)   - one entry per distinct digest
//
// Interface-typed indexes also hash the dynamic type of each key, so int(1)
// and int64(1) are distinct keys of a Typed[any]. Index.KeyDigest returns the
// digest to pass to the erased API for a given key.
//
// Table growth never rehashes stored keys; entries move by their stored
// placement key, so equality between entries is fixed at insert time.
//
// # Typed vs Erased
//
// Only the typed API can create entries, because an entry stores a copy of
// its key and the erased API has nothing but a digest:
//
//	ix := index.NewTyped[string]()
//	ix.InsertEntity("alice", 1)                  // creates the entry
//	var erased index.Index = ix
//	erased.InsertEntityWithHash(digest.Of("alice"), 2) // ok, entry exists
//	erased.InsertEntityWithHash(digest.Of("bob"), 3)   // ErrNoSuchEntry
//
// # Entity Sets
//
// Entity sets are 64-bit Roaring Bitmaps, giving compact posting lists and
// fast intersection for multi-property matching.
//
// # Thread Safety
//
// Indexes are not synchronized. A single owner may mutate an index at a time;
// concurrent readers must be excluded during writes by the caller.
package index
