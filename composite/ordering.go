package composite

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrNoTags is returned when an ordering is requested for zero tags.
	ErrNoTags = errors.New("composite: no tags")

	// ErrDuplicateTag is returned when two tags share the same order key.
	ErrDuplicateTag = errors.New("composite: duplicate tag")

	// ErrArity is returned when a value tuple does not match the ordering arity.
	ErrArity = errors.New("composite: arity mismatch")
)

// Ordering maps a caller order of tags onto the canonical (sorted) order.
//
// perm[i] is the canonical position of caller position i; inv is its inverse.
// An Ordering is immutable after construction.
type Ordering struct {
	tags      []string
	canonical []string
	perm      []int
	inv       []int
	key       string
}

// NewOrdering derives the canonical order of tags.
//
// Tags are ordered by byte-wise string comparison. Two equal tags fail with
// ErrDuplicateTag since no strict order exists between them.
func NewOrdering(tags ...string) (*Ordering, error) {
	if len(tags) == 0 {
		return nil, ErrNoTags
	}

	idx := make([]int, len(tags))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(tags[a], tags[b])
	})

	o := &Ordering{
		tags:      slices.Clone(tags),
		canonical: make([]string, len(tags)),
		perm:      make([]int, len(tags)),
		inv:       idx,
	}
	for pos, from := range idx {
		if pos > 0 && tags[from] == o.canonical[pos-1] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTag, tags[from])
		}
		o.canonical[pos] = tags[from]
		o.perm[from] = pos
	}
	o.key = SetKey(o.canonical)
	return o, nil
}

// SetKey encodes an already canonical tag list. Tags are length-prefixed so
// no tag content can forge a boundary.
func SetKey(canonical []string) string {
	var b strings.Builder
	for _, t := range canonical {
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte(':')
		b.WriteString(t)
	}
	return b.String()
}

// Arity returns the number of tags.
func (o *Ordering) Arity() int { return len(o.tags) }

// Tags returns the tags in caller order.
func (o *Ordering) Tags() []string { return slices.Clone(o.tags) }

// Canonical returns the tags in canonical order.
func (o *Ordering) Canonical() []string { return slices.Clone(o.canonical) }

// Permutation returns the caller-position to canonical-position mapping.
func (o *Ordering) Permutation() []int { return slices.Clone(o.perm) }

// Inverse returns the canonical-position to caller-position mapping.
func (o *Ordering) Inverse() []int { return slices.Clone(o.inv) }

// Key identifies the tag set. It is equal for every caller order of the same set.
func (o *Ordering) Key() string { return o.key }

// IsCanonical reports whether the caller order already is the canonical order.
func (o *Ordering) IsCanonical() bool {
	for i, p := range o.perm {
		if i != p {
			return false
		}
	}
	return true
}

// String returns the ordering as "caller order -> canonical order".
func (o *Ordering) String() string {
	return fmt.Sprintf("(%s) -> (%s)", strings.Join(o.tags, ", "), strings.Join(o.canonical, ", "))
}

// Reorder moves values from caller order into canonical order.
func Reorder[V any](o *Ordering, values []V) ([]V, error) {
	if len(values) != len(o.perm) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrArity, len(o.perm), len(values))
	}
	out := make([]V, len(values))
	for i, v := range values {
		out[o.perm[i]] = v
	}
	return out, nil
}

// Unreorder moves values from canonical order back into caller order.
func Unreorder[V any](o *Ordering, canonical []V) ([]V, error) {
	if len(canonical) != len(o.perm) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrArity, len(o.perm), len(canonical))
	}
	out := make([]V, len(canonical))
	for i := range out {
		out[i] = canonical[o.perm[i]]
	}
	return out, nil
}
