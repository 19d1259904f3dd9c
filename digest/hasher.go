package digest

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaolacci/murmur3"
)

// Kind markers written ahead of every value payload.
const (
	kindNil byte = iota + 1
	kindBool
	kindInt
	kindUint
	kindFloat
	kindComplex
	kindString
	kindBytes
	kindSeq
	kindStruct
	kindMap
	kindTime
	kindCustom
	kindType
)

// Seconds from January 1, year 1 to the epochs package time stores instants against.
const (
	secondsPerDay  = 86400
	unixToInternal = (1969*365 + 1969/4 - 1969/100 + 1969/400) * secondsPerDay
	wallToInternal = (1884*365 + 1884/4 - 1884/100 + 1884/400) * secondsPerDay
)

// Hashable is implemented by types that define their own digest encoding.
//
// Implementations must write the same byte stream for values they consider
// equal, and should write a different stream otherwise.
type Hashable interface {
	HashInto(h *Hasher)
}

var (
	hashableType = reflect.TypeFor[Hashable]()
	timeType     = reflect.TypeFor[time.Time]()

	// reflect.Type -> process-local type id
	typeIDs  sync.Map
	lastType atomic.Uint64
)

func typeID(t reflect.Type) uint64 {
	if id, ok := typeIDs.Load(t); ok {
		return id.(uint64)
	}
	id, _ := typeIDs.LoadOrStore(t, lastType.Add(1))
	return id.(uint64)
}

// Hasher streams values into a 128-bit murmur3 state.
// It is not safe for concurrent use.
type Hasher struct {
	h       murmur3.Hash128
	scratch [9]byte
}

// NewHasher returns a Hasher with an empty state.
func NewHasher() *Hasher {
	return &Hasher{h: murmur3.New128()}
}

// Reset clears the state so the Hasher can be reused.
func (h *Hasher) Reset() {
	h.h.Reset()
}

// Sum returns the digest of everything written so far without resetting.
func (h *Hasher) Sum() Digest {
	h1, h2 := h.h.Sum128()
	return Digest{H1: h1, H2: h2}
}

// Write implements io.Writer. Raw bytes carry no kind marker or length prefix.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

func (h *Hasher) writeWord(kind byte, v uint64) {
	h.scratch[0] = kind
	binary.LittleEndian.PutUint64(h.scratch[1:], v)
	_, _ = h.h.Write(h.scratch[:])
}

// WriteBool writes a boolean value.
func (h *Hasher) WriteBool(v bool) {
	b := [2]byte{kindBool, 0}
	if v {
		b[1] = 1
	}
	_, _ = h.h.Write(b[:])
}

// WriteInt64 writes a signed integer. All signed widths share this encoding.
func (h *Hasher) WriteInt64(v int64) {
	h.writeWord(kindInt, uint64(v))
}

// WriteUint64 writes an unsigned integer. All unsigned widths share this encoding.
func (h *Hasher) WriteUint64(v uint64) {
	h.writeWord(kindUint, v)
}

// WriteFloat64 writes a float. Negative zero is written as zero.
func (h *Hasher) WriteFloat64(v float64) {
	if v == 0 {
		v = 0
	}
	h.writeWord(kindFloat, math.Float64bits(v))
}

// WriteString writes a length-prefixed string.
func (h *Hasher) WriteString(s string) {
	h.writeWord(kindString, uint64(len(s)))
	_, _ = h.h.Write([]byte(s))
}

// WriteBytes writes a length-prefixed byte slice.
func (h *Hasher) WriteBytes(b []byte) {
	h.writeWord(kindBytes, uint64(len(b)))
	_, _ = h.h.Write(b)
}

// WriteLen writes a sequence header. Hashable implementations use it ahead of
// their elements so that adjacent sequences cannot be confused.
func (h *Hasher) WriteLen(n int) {
	h.writeWord(kindSeq, uint64(n))
}

// WriteNil writes the nil marker.
func (h *Hasher) WriteNil() {
	_, _ = h.h.Write([]byte{kindNil})
}

// WriteDigest writes a previously computed digest.
func (h *Hasher) WriteDigest(d Digest) {
	h.writeWord(kindCustom, d.H1)
	h.writeWord(kindCustom, d.H2)
}

// WriteDynamic writes v preceded by its dynamic type, so that int(1) and
// int64(1), or two named types with equal content, do not share an encoding.
// Type identities are process-local.
func (h *Hasher) WriteDynamic(v any) {
	if v == nil {
		h.WriteNil()
		return
	}
	h.writeWord(kindType, typeID(reflect.TypeOf(v)))
	h.WriteValue(v)
}

// WriteValue writes v according to its dynamic type.
//
// Common scalar types take a fast path; everything else is walked by
// reflection. WriteValue panics on func, chan and unsafe pointer kinds.
func (h *Hasher) WriteValue(v any) {
	switch x := v.(type) {
	case nil:
		h.WriteNil()
	case Hashable:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			h.WriteNil()
			return
		}
		x.HashInto(h)
	case string:
		h.WriteString(x)
	case []byte:
		h.WriteBytes(x)
	case bool:
		h.WriteBool(x)
	case int:
		h.WriteInt64(int64(x))
	case int8:
		h.WriteInt64(int64(x))
	case int16:
		h.WriteInt64(int64(x))
	case int32:
		h.WriteInt64(int64(x))
	case int64:
		h.WriteInt64(x)
	case uint:
		h.WriteUint64(uint64(x))
	case uint8:
		h.WriteUint64(uint64(x))
	case uint16:
		h.WriteUint64(uint64(x))
	case uint32:
		h.WriteUint64(uint64(x))
	case uint64:
		h.WriteUint64(x)
	case float32:
		h.WriteFloat64(float64(x))
	case float64:
		h.WriteFloat64(x)
	case time.Time:
		h.writeWord(kindTime, uint64(x.UnixNano()))
	case []any:
		h.WriteLen(len(x))
		for _, e := range x {
			h.WriteValue(e)
		}
	default:
		h.writeReflect(reflect.ValueOf(v))
	}
}

func (h *Hasher) writeReflect(v reflect.Value) {
	if !v.IsValid() {
		h.WriteNil()
		return
	}

	t := v.Type()
	if v.CanInterface() && t.Implements(hashableType) {
		if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
			h.WriteNil()
			return
		}
		v.Interface().(Hashable).HashInto(h)
		return
	}
	if t == timeType {
		if v.CanInterface() {
			h.writeWord(kindTime, uint64(v.Interface().(time.Time).UnixNano()))
		} else {
			h.writeWord(kindTime, uint64(unixNano(v)))
		}
		return
	}

	switch v.Kind() {
	case reflect.Bool:
		h.WriteBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		h.WriteInt64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		h.WriteUint64(v.Uint())
	case reflect.Float32, reflect.Float64:
		h.WriteFloat64(v.Float())
	case reflect.Complex64, reflect.Complex128:
		c := v.Complex()
		h.writeWord(kindComplex, 2)
		h.WriteFloat64(real(c))
		h.WriteFloat64(imag(c))
	case reflect.String:
		h.WriteString(v.String())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			h.WriteBytes(v.Bytes())
			return
		}
		h.writeSeq(v)
	case reflect.Array:
		h.writeSeq(v)
	case reflect.Struct:
		n := v.NumField()
		h.writeWord(kindStruct, uint64(n))
		for i := 0; i < n; i++ {
			h.writeReflect(v.Field(i))
		}
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			h.WriteNil()
			return
		}
		h.writeReflect(v.Elem())
	case reflect.Map:
		h.writeMap(v)
	default:
		panic(fmt.Sprintf("digest: unhashable kind %s (type %s)", v.Kind(), t))
	}
}

// unixNano reads the instant of a time.Time reached through an unexported
// field. Only wall and ext are read; the *Location is never followed, since
// its contents change when package time initializes Local lazily.
func unixNano(v reflect.Value) int64 {
	wall := v.FieldByName("wall").Uint()
	ext := v.FieldByName("ext").Int()

	nsec := int64(wall & (1<<30 - 1))
	sec := ext
	if wall&(1<<63) != 0 {
		// monotonic reading present: wall holds 33 bits of seconds since 1885
		sec = wallToInternal + int64(wall<<1>>31)
	}
	return (sec-unixToInternal)*1e9 + nsec
}

func (h *Hasher) writeSeq(v reflect.Value) {
	n := v.Len()
	h.WriteLen(n)
	for i := 0; i < n; i++ {
		h.writeReflect(v.Index(i))
	}
}

// writeMap combines per-entry digests with addition so iteration order does not matter.
func (h *Hasher) writeMap(v reflect.Value) {
	var sum Digest
	entry := NewHasher()
	iter := v.MapRange()
	for iter.Next() {
		entry.Reset()
		entry.writeReflect(iter.Key())
		entry.writeReflect(iter.Value())
		d := entry.Sum()
		sum.H1 += d.H1
		sum.H2 += d.H2
	}
	h.writeWord(kindMap, uint64(v.Len()))
	h.WriteDigest(sum)
}
