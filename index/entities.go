package index

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/propdex/model"
)

// Entities is a read-only view of an entity set.
type Entities interface {
	// Contains reports whether id is in the set.
	Contains(id model.EntityID) bool
	// Len returns the number of entities in the set.
	Len() int
	// IsEmpty reports whether the set is empty.
	IsEmpty() bool
	// All iterates over the set in ascending order.
	All() iter.Seq[model.EntityID]
	// ToSlice returns the set in ascending order.
	ToSlice() []model.EntityID
	// Clone returns a mutable deep copy of the set.
	Clone() *EntitySet
}

// EntitySet is a set of entity ids backed by a 64-bit Roaring Bitmap.
type EntitySet struct {
	rb *roaring64.Bitmap
}

var _ Entities = (*EntitySet)(nil)

// NewEntitySet creates a set holding ids.
func NewEntitySet(ids ...model.EntityID) *EntitySet {
	s := &EntitySet{rb: roaring64.New()}
	for _, id := range ids {
		s.rb.Add(uint64(id))
	}
	return s
}

// Add adds id to the set and reports whether it was newly added.
func (s *EntitySet) Add(id model.EntityID) bool {
	return s.rb.CheckedAdd(uint64(id))
}

// Remove removes id from the set and reports whether it was present.
func (s *EntitySet) Remove(id model.EntityID) bool {
	return s.rb.CheckedRemove(uint64(id))
}

// Contains reports whether id is in the set.
func (s *EntitySet) Contains(id model.EntityID) bool {
	return s.rb.Contains(uint64(id))
}

// Len returns the number of entities in the set.
func (s *EntitySet) Len() int {
	return int(s.rb.GetCardinality())
}

// IsEmpty returns true if the set is empty.
func (s *EntitySet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// All iterates over the set in ascending order.
func (s *EntitySet) All() iter.Seq[model.EntityID] {
	return func(yield func(model.EntityID) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(model.EntityID(it.Next())) {
				return
			}
		}
	}
}

// ToSlice returns the set in ascending order.
func (s *EntitySet) ToSlice() []model.EntityID {
	out := make([]model.EntityID, 0, s.Len())
	for id := range s.All() {
		out = append(out, id)
	}
	return out
}

// Clone returns a deep copy of the set.
func (s *EntitySet) Clone() *EntitySet {
	return &EntitySet{rb: s.rb.Clone()}
}

// And intersects the set with other in place.
func (s *EntitySet) And(other *EntitySet) {
	s.rb.And(other.rb)
}

// Or unions the set with other in place.
func (s *EntitySet) Or(other *EntitySet) {
	s.rb.Or(other.rb)
}

// Equal reports whether both sets hold the same ids.
func (s *EntitySet) Equal(other *EntitySet) bool {
	return s.rb.Equals(other.rb)
}

// Clear removes all elements from the set.
func (s *EntitySet) Clear() {
	s.rb.Clear()
}

// SizeInBytes returns the serialized size of the underlying bitmap.
func (s *EntitySet) SizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}

// Intersect returns the intersection of sets, starting from the smallest
// to reduce work. It returns an empty set when sets is empty.
func Intersect(sets ...Entities) *EntitySet {
	if len(sets) == 0 {
		return NewEntitySet()
	}

	base := 0
	for i := 1; i < len(sets); i++ {
		if sets[i].Len() < sets[base].Len() {
			base = i
		}
	}

	result := sets[base].Clone()
	for i, other := range sets {
		if i == base || result.IsEmpty() {
			continue
		}
		if o, ok := other.(*EntitySet); ok {
			result.And(o)
			continue
		}
		for id := range result.Clone().All() {
			if !other.Contains(id) {
				result.Remove(id)
			}
		}
	}
	return result
}
