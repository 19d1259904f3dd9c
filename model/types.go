package model

import (
	"strconv"
)

// EntityID is the opaque identifier of an indexed entity.
// It is owned by the caller; the index only tracks membership.
type EntityID uint64

// String returns the decimal representation of the EntityID.
func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
