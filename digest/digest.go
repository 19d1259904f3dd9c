package digest

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// Digest is a 128-bit content hash.
type Digest struct {
	H1 uint64
	H2 uint64
}

// Placement returns the 64-bit table placement key derived from the digest.
// Placement collisions are expected and must be resolved by comparing full digests.
func (d Digest) Placement() uint64 {
	return d.H1
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d.H1 == 0 && d.H2 == 0
}

// Bytes returns the big-endian 16-byte representation of the digest.
func (d Digest) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], d.H1)
	binary.BigEndian.PutUint64(b[8:], d.H2)
	return b
}

// String returns the digest as 32 hex characters.
func (d Digest) String() string {
	return fmt.Sprintf("%016x%016x", d.H1, d.H2)
}

// Of returns the 128-bit digest of v.
//
// Of panics if v contains a func, chan or unsafe pointer.
func Of(v any) Digest {
	h := NewHasher()
	h.WriteValue(v)
	return h.Sum()
}

// Of64 returns the 64-bit digest of v, which equals Of(v).Placement().
func Of64(v any) uint64 {
	return Of(v).Placement()
}

// OfDynamic is like Of but also hashes the dynamic type of v.
// Values of different dynamic types do not share an encoding.
func OfDynamic(v any) Digest {
	h := NewHasher()
	h.WriteDynamic(v)
	return h.Sum()
}

// OfKey returns the digest of a key of static type T.
// Interface-typed keys are digested with OfDynamic, all others with Of.
func OfKey[T any](key T) Digest {
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		return OfDynamic(key)
	}
	return Of(key)
}
