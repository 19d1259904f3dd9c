// Package digest provides deterministic content hashing for index keys.
//
// # Content Digests
//
// Every indexed value is reduced to a 128-bit murmur3 digest. Two values are
// considered the same index key if and only if their digests are equal; no
// structural comparison is performed. At 128 bits the collision probability is
// negligible for any table size an in-memory index can reach.
//
// # Usage
//
// For one-shot digests:
//
//	d := digest.Of("alice")
//	placement := digest.Of64("alice") // == d.Placement()
//
// For streaming digests of composite values:
//
//	h := digest.NewHasher()
//	h.WriteString("region")
//	h.WriteInt64(30)
//	d := h.Sum()
//
// # Encoding
//
// Each value contributes a kind marker followed by its payload, so that values
// of different shapes do not share an encoding. Named types hash like their
// underlying kind, and all signed (or unsigned) integer widths share one
// encoding, so Of(int(1)) == Of(int64(1)). Use OfDynamic, or OfKey with an
// interface type parameter, when values of different dynamic types must stay
// apart. Types implementing Hashable control their own encoding.
//
// A time.Time hashes by its instant only, whether or not it is reachable
// through exported fields; the monotonic reading and location are ignored.
//
// Digests are stable within one build of the module. They are not a persistence
// format and may change between versions.
package digest
