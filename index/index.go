package index

import (
	"errors"
	"iter"
	"reflect"

	"github.com/hupe1980/propdex/digest"
	"github.com/hupe1980/propdex/model"
)

var (
	// ErrNoSuchEntry is returned by the erased API when no entry exists for a digest.
	ErrNoSuchEntry = errors.New("no such entry")

	// ErrDuplicateKey is returned by InsertValue when an entry already exists for the key.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Index is the type-erased index API.
//
// Every *Typed[T] implements Index. The erased API cannot create entries:
// inserting into a digest without an existing entry fails with ErrNoSuchEntry.
type Index interface {
	// InsertEntityWithHash adds id to the set of an existing entry and reports
	// whether it was newly added.
	InsertEntityWithHash(d digest.Digest, id model.EntityID) (bool, error)

	// RemoveEntityWithHash removes id from the set of an existing entry and
	// reports whether it was present. Entries left empty are pruned.
	RemoveEntityWithHash(d digest.Digest, id model.EntityID) (bool, error)

	// GetWithHash returns a read-only view of the set for d.
	GetWithHash(d digest.Digest) (Entities, bool)

	// GetWithHashMut returns the mutable set for d. An entry whose set is
	// emptied through the handle is kept until RemoveEntityWithHash prunes it.
	GetWithHashMut(d digest.Digest) (*EntitySet, bool)

	// HasHash reports whether an entry exists for d.
	HasHash(d digest.Digest) bool

	// KeyWithHash returns the stored key for d.
	KeyWithHash(d digest.Digest) (any, bool)

	// Hashes iterates over all entries by digest.
	Hashes() iter.Seq2[digest.Digest, Entities]

	// KeyDigest returns the digest the index uses for key. It equals
	// digest.Of(key) unless the key type is an interface, in which case the
	// dynamic type of key is hashed as well (see digest.OfDynamic).
	KeyDigest(key any) digest.Digest

	// KeyType returns the static key type of the index.
	KeyType() reflect.Type

	// Len returns the number of entries.
	Len() int
}
