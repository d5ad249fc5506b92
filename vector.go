package lidl

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/rawbytedev/lidl/internal/common"
)

// VectorHeaderSize is the width of the element count prefix.
const VectorHeaderSize = 2

// Vector is a zero-copy view over a counted run of fixed-width elements:
//
//	[count uint16 LE][padding to alignof(T)][count × T]
//
// The allocation is aligned to max(2, alignof(T)) so the element run is
// aligned whenever the buffer itself is.
type Vector[T common.Fixed] struct {
	mem Segment
}

func vectorLayout[T common.Fixed]() (elem, data, align int) {
	elem = common.SizeOf[T]()
	align = max(VectorHeaderSize, elem)
	return elem, common.AlignUp(VectorHeaderSize, elem), align
}

// NewVector writes vals into b.
func NewVector[T common.Fixed](b *Builder, vals []T) (Vector[T], error) {
	if len(vals) > math.MaxUint16 {
		return Vector[T]{}, fmt.Errorf("vector of %d elements: %w", len(vals), ErrValueTooLarge)
	}
	elem, data, align := vectorLayout[T]()
	mem, err := b.Allocate(data+len(vals)*elem, align)
	if err != nil {
		return Vector[T]{}, err
	}
	out := mem.Bytes()
	common.PutFixed(out, uint16(len(vals)))
	for i, v := range vals {
		common.PutFixed(out[data+i*elem:], v)
	}
	return Vector[T]{mem: mem}, nil
}

// VectorFromBuffer reinterprets seg as a vector of T.
func VectorFromBuffer[T common.Fixed](seg Segment) (Vector[T], error) {
	if seg.Len() < VectorHeaderSize {
		return Vector[T]{}, fmt.Errorf("vector header needs %d bytes, have %d: %w",
			VectorHeaderSize, seg.Len(), ErrTruncated)
	}
	elem, data, _ := vectorLayout[T]()
	n := int(common.GetFixed[uint16](seg.Bytes()))
	need := data + n*elem
	if n == 0 {
		need = VectorHeaderSize
	}
	if seg.Len() < need {
		return Vector[T]{}, fmt.Errorf("vector declares %d elements (%d bytes), have %d: %w",
			n, need, seg.Len(), ErrTruncated)
	}
	mem, _ := seg.Slice(0, need)
	return Vector[T]{mem: mem}, nil
}

func (v Vector[T]) Len() int {
	return int(common.GetFixed[uint16](v.mem.Bytes()))
}

// At returns element i.
func (v Vector[T]) At(i int) (T, error) {
	if i < 0 || i >= v.Len() {
		var zero T
		return zero, fmt.Errorf("index %d of %d: %w", i, v.Len(), ErrOutOfBounds)
	}
	elem, data, _ := vectorLayout[T]()
	return common.GetFixed[T](v.mem.Bytes()[data+i*elem:]), nil
}

// Values decodes every element into a new slice.
func (v Vector[T]) Values() []T {
	n := v.Len()
	out := make([]T, n)
	elem, data, _ := vectorLayout[T]()
	b := v.mem.Bytes()
	for i := range out {
		out[i] = common.GetFixed[T](b[data+i*elem:])
	}
	return out
}

// Alias returns the elements as a []T sharing memory with the buffer. It
// fails with ErrMisaligned when the element run is not aligned for T in
// memory or the host is not little-endian; use Values then.
func (v Vector[T]) Alias() ([]T, error) {
	n := v.Len()
	if n == 0 {
		return nil, nil
	}
	elem, data, _ := vectorLayout[T]()
	p := unsafe.Pointer(&v.mem.Bytes()[data])
	if !common.NativeLittleEndian || uintptr(p)%uintptr(elem) != 0 {
		return nil, fmt.Errorf("alias vector at %d: %w", v.mem.base, ErrMisaligned)
	}
	return unsafe.Slice((*T)(p), n), nil
}

func (v Vector[T]) Segment() Segment { return v.mem }
