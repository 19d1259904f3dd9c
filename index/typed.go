package index

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/hupe1980/propdex/digest"
	"github.com/hupe1980/propdex/model"
)

// Cloner is implemented by key types that need a deep copy when stored.
type Cloner[T any] interface {
	Clone() T
}

// Entry is a stored key together with its digest and entity set.
type Entry[T any] struct {
	key    T
	digest digest.Digest
	set    *EntitySet
}

// Key returns the stored copy of the key.
func (e *Entry[T]) Key() T { return e.key }

// Digest returns the content digest of the key.
func (e *Entry[T]) Digest() digest.Digest { return e.digest }

// Entities returns the mutable entity set of the entry.
func (e *Entry[T]) Entities() *EntitySet { return e.set }

// Typed is a property index for keys of type T.
//
// Entries are placed by digest.Placement() and matched by the full 128-bit
// digest. Every stored key has type T. Keys are digested with digest.OfKey,
// so an interface-typed T keeps keys of different dynamic types apart.
type Typed[T any] struct {
	// placement key -> entries whose digests share it
	buckets map[uint64][]*Entry[T]
	n       int
}

var _ Index = (*Typed[int])(nil)

// NewTyped creates an empty typed index.
func NewTyped[T any]() *Typed[T] {
	return &Typed[T]{
		buckets: make(map[uint64][]*Entry[T]),
	}
}

func (ix *Typed[T]) find(d digest.Digest) *Entry[T] {
	for _, e := range ix.buckets[d.Placement()] {
		if e.digest == d {
			return e
		}
	}
	return nil
}

func (ix *Typed[T]) add(e *Entry[T]) {
	p := e.digest.Placement()
	ix.buckets[p] = append(ix.buckets[p], e)
	ix.n++
}

func (ix *Typed[T]) prune(e *Entry[T]) {
	p := e.digest.Placement()
	bucket := ix.buckets[p]
	for i, other := range bucket {
		if other != e {
			continue
		}
		bucket[i] = bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		bucket = bucket[:len(bucket)-1]
		break
	}
	if len(bucket) == 0 {
		delete(ix.buckets, p)
	} else {
		ix.buckets[p] = bucket
	}
	ix.n--
}

func storedKey[T any](key T) T {
	if c, ok := any(key).(Cloner[T]); ok {
		return c.Clone()
	}
	return key
}

// InsertEntity adds id to the set for key, creating the entry if the key has
// not been seen. It reports whether id was newly added.
func (ix *Typed[T]) InsertEntity(key T, id model.EntityID) bool {
	d := digest.OfKey(key)
	e := ix.find(d)
	if e == nil {
		e = &Entry[T]{key: storedKey(key), digest: d, set: NewEntitySet()}
		ix.add(e)
	}
	return e.set.Add(id)
}

// InsertValue stores a complete entity set for key. The index takes ownership
// of set; a nil set is stored as an empty set.
//
// It fails with ErrDuplicateKey if an entry for key already exists.
func (ix *Typed[T]) InsertValue(key T, set *EntitySet) (*Entry[T], error) {
	d := digest.OfKey(key)
	if ix.find(d) != nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, d)
	}
	if set == nil {
		set = NewEntitySet()
	}
	e := &Entry[T]{key: storedKey(key), digest: d, set: set}
	ix.add(e)
	return e, nil
}

// RemoveEntity removes id from the set for key and reports whether it was
// present. The entry is pruned once its set is empty.
func (ix *Typed[T]) RemoveEntity(key T, id model.EntityID) bool {
	removed, _ := ix.RemoveEntityWithHash(digest.OfKey(key), id)
	return removed
}

// Get returns a read-only view of the set for key.
func (ix *Typed[T]) Get(key T) (Entities, bool) {
	return ix.GetWithHash(digest.OfKey(key))
}

// GetMut returns the mutable set for key.
//
// Emptying the set through the handle does not prune the entry: it stays
// present, like an entry created by InsertValue with an empty set, until
// RemoveEntity is called for the key.
func (ix *Typed[T]) GetMut(key T) (*EntitySet, bool) {
	return ix.GetWithHashMut(digest.OfKey(key))
}

// HasKey reports whether an entry exists for key.
func (ix *Typed[T]) HasKey(key T) bool {
	return ix.find(digest.OfKey(key)) != nil
}

// Entry returns the entry for key.
func (ix *Typed[T]) Entry(key T) (*Entry[T], bool) {
	e := ix.find(digest.OfKey(key))
	return e, e != nil
}

// All iterates over stored keys and their sets in unspecified order.
// The index must not be mutated during iteration.
func (ix *Typed[T]) All() iter.Seq2[T, Entities] {
	return func(yield func(T, Entities) bool) {
		for _, bucket := range ix.buckets {
			for _, e := range bucket {
				if !yield(e.key, e.set) {
					return
				}
			}
		}
	}
}

// Len returns the number of entries.
func (ix *Typed[T]) Len() int {
	return ix.n
}

// KeyDigest implements Index.
func (ix *Typed[T]) KeyDigest(key any) digest.Digest {
	if reflect.TypeFor[T]().Kind() == reflect.Interface {
		return digest.OfDynamic(key)
	}
	return digest.Of(key)
}

// KeyType returns the reflect.Type of T.
func (ix *Typed[T]) KeyType() reflect.Type {
	return reflect.TypeFor[T]()
}

// InsertEntityWithHash implements Index.
func (ix *Typed[T]) InsertEntityWithHash(d digest.Digest, id model.EntityID) (bool, error) {
	e := ix.find(d)
	if e == nil {
		return false, fmt.Errorf("%w: %s", ErrNoSuchEntry, d)
	}
	return e.set.Add(id), nil
}

// RemoveEntityWithHash implements Index.
func (ix *Typed[T]) RemoveEntityWithHash(d digest.Digest, id model.EntityID) (bool, error) {
	e := ix.find(d)
	if e == nil {
		return false, fmt.Errorf("%w: %s", ErrNoSuchEntry, d)
	}
	removed := e.set.Remove(id)
	if e.set.IsEmpty() {
		ix.prune(e)
	}
	return removed, nil
}

// GetWithHash implements Index.
func (ix *Typed[T]) GetWithHash(d digest.Digest) (Entities, bool) {
	e := ix.find(d)
	if e == nil {
		return nil, false
	}
	return e.set, true
}

// GetWithHashMut implements Index. Like GetMut, it never prunes.
func (ix *Typed[T]) GetWithHashMut(d digest.Digest) (*EntitySet, bool) {
	e := ix.find(d)
	if e == nil {
		return nil, false
	}
	return e.set, true
}

// HasHash implements Index.
func (ix *Typed[T]) HasHash(d digest.Digest) bool {
	return ix.find(d) != nil
}

// KeyWithHash implements Index.
func (ix *Typed[T]) KeyWithHash(d digest.Digest) (any, bool) {
	e := ix.find(d)
	if e == nil {
		return nil, false
	}
	return e.key, true
}

// Hashes implements Index.
func (ix *Typed[T]) Hashes() iter.Seq2[digest.Digest, Entities] {
	return func(yield func(digest.Digest, Entities) bool) {
		for _, bucket := range ix.buckets {
			for _, e := range bucket {
				if !yield(e.digest, e.set) {
					return
				}
			}
		}
	}
}
