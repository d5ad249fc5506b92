package lidl

import (
	"fmt"
	"math"

	"github.com/rawbytedev/lidl/internal/common"
)

// StringVector is a counted table of references to strings:
//
//	[count uint16 LE][count × Ptr]
//
// The strings live elsewhere in the buffer and are always written before the
// table that points at them.
type StringVector struct {
	mem Segment
}

// NewStringVector writes every value, then the reference table. The whole
// layout is checked up front: on error nothing has been written.
func NewStringVector(b *Builder, vals []string) (StringVector, error) {
	if len(vals) > math.MaxUint16 {
		return StringVector{}, fmt.Errorf("string vector of %d elements: %w", len(vals), ErrValueTooLarge)
	}
	offs := make([]int, len(vals))
	off := b.Len()
	for i, v := range vals {
		if len(v) > MaxStringLen {
			return StringVector{}, fmt.Errorf("element %d of %d bytes: %w", i, len(v), ErrValueTooLarge)
		}
		offs[i] = off
		off += StringHeaderSize + len(v)
	}
	table := common.AlignUp(off, PtrAlign)
	size := VectorHeaderSize + len(vals)*PtrSize
	if table > b.Cap() || size > b.Cap()-table {
		return StringVector{}, fmt.Errorf("string vector of %d bytes at %d of %d: %w",
			table+size-b.Len(), b.Len(), b.Cap(), ErrOutOfSpace)
	}
	for i, o := range offs {
		if err := checkDisplacement(o - (table + VectorHeaderSize + i*PtrSize)); err != nil {
			return StringVector{}, fmt.Errorf("element %d: %w", i, err)
		}
	}

	m := b.Mark()
	v, err := writeStringVector(b, vals)
	if err != nil {
		b.Rewind(m)
	}
	return v, err
}

func writeStringVector(b *Builder, vals []string) (StringVector, error) {
	targets := make([]Segment, len(vals))
	for i, v := range vals {
		s, err := NewString(b, v)
		if err != nil {
			return StringVector{}, err
		}
		targets[i] = s.Segment()
	}
	mem, err := b.Allocate(VectorHeaderSize+len(vals)*PtrSize, PtrAlign)
	if err != nil {
		return StringVector{}, err
	}
	common.PutFixed(mem.Bytes(), uint16(len(vals)))
	for i, target := range targets {
		slot, _ := mem.Slice(VectorHeaderSize+i*PtrSize, PtrSize)
		if _, err := PtrAt(b, slot, target); err != nil {
			return StringVector{}, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return StringVector{mem: mem}, nil
}

// StringVectorFromBuffer reinterprets seg as a reference table.
func StringVectorFromBuffer(seg Segment) (StringVector, error) {
	if seg.Len() < VectorHeaderSize {
		return StringVector{}, fmt.Errorf("vector header needs %d bytes, have %d: %w",
			VectorHeaderSize, seg.Len(), ErrTruncated)
	}
	n := int(common.GetFixed[uint16](seg.Bytes()))
	need := VectorHeaderSize + n*PtrSize
	if seg.Len() < need {
		return StringVector{}, fmt.Errorf("vector declares %d references, have %d bytes: %w",
			n, seg.Len(), ErrTruncated)
	}
	mem, _ := seg.Slice(0, need)
	return StringVector{mem: mem}, nil
}

func (v StringVector) Len() int {
	return int(common.GetFixed[uint16](v.mem.Bytes()))
}

// At resolves the i-th reference.
func (v StringVector) At(i int) (String, error) {
	if i < 0 || i >= v.Len() {
		return String{}, fmt.Errorf("index %d of %d: %w", i, v.Len(), ErrOutOfBounds)
	}
	slot, _ := v.mem.Slice(VectorHeaderSize+i*PtrSize, PtrSize)
	p, err := PtrFromBuffer(slot)
	if err != nil {
		return String{}, err
	}
	return Deref(p, StringFromBuffer)
}

// Strings resolves and decodes every element.
func (v StringVector) Strings() ([]string, error) {
	out := make([]string, v.Len())
	for i := range out {
		s, err := v.At(i)
		if err != nil {
			return nil, err
		}
		if out[i], err = s.Get(); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

func (v StringVector) Segment() Segment { return v.mem }
