package composite

import (
	"slices"

	"github.com/hupe1980/propdex/digest"
)

// Tuple is a composite key with values in canonical tag order.
type Tuple []any

// HashInto implements digest.Hashable. Elements are written with their dynamic
// types, so tuples over interface-typed properties keep int(1) and int64(1)
// apart.
func (t Tuple) HashInto(h *digest.Hasher) {
	h.WriteLen(len(t))
	for _, v := range t {
		h.WriteDynamic(v)
	}
}

// Clone returns a shallow copy of the tuple so stored keys are not aliased.
func (t Tuple) Clone() Tuple {
	return slices.Clone(t)
}

// NewTuple reorders caller-order values into a canonical Tuple.
func NewTuple(o *Ordering, values ...any) (Tuple, error) {
	canon, err := Reorder(o, values)
	if err != nil {
		return nil, err
	}
	return Tuple(canon), nil
}

// Values returns the tuple values in the caller order of o.
func (t Tuple) Values(o *Ordering) ([]any, error) {
	return Unreorder(o, []any(t))
}
