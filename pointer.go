package lidl

import (
	"fmt"
	"math"

	"github.com/rawbytedev/lidl/internal/common"
)

const (
	PtrSize  = 2
	PtrAlign = 2
)

// Ptr is a self-relative reference: a signed 16-bit displacement from the
// reference's own offset to its target. Because no absolute address is
// stored, a buffer full of references can be copied, sent or mapped at any
// base address and still resolve.
//
// A displacement of zero is the null reference.
type Ptr struct {
	mem Segment
}

// NewPtr allocates a reference to target. target must already be fully
// written into b; linking to bytes that come later is rejected.
func NewPtr(b *Builder, target Segment) (Ptr, error) {
	if !b.written(target) {
		return Ptr{}, fmt.Errorf("link to %s with %d bytes written: %w", target, b.Len(), ErrOutOfBounds)
	}
	if err := checkDisplacement(target.base - common.AlignUp(b.Len(), PtrAlign)); err != nil {
		return Ptr{}, err
	}
	mem, err := b.Allocate(PtrSize, PtrAlign)
	if err != nil {
		return Ptr{}, err
	}
	p := Ptr{mem: mem}
	if err := p.set(target.base); err != nil {
		return Ptr{}, err
	}
	return p, nil
}

func checkDisplacement(disp int) error {
	if disp < math.MinInt16 || disp > math.MaxInt16 {
		return fmt.Errorf("displacement %d: %w", disp, ErrValueTooLarge)
	}
	return nil
}

// PtrAt turns an already allocated 2-byte slot into a reference to target.
// Generated views use it to fill pointer fields inside a larger allocation.
func PtrAt(b *Builder, slot Segment, target Segment) (Ptr, error) {
	if slot.Len() < PtrSize {
		return Ptr{}, fmt.Errorf("pointer slot of %d bytes: %w", slot.Len(), ErrTruncated)
	}
	if !b.written(target) || !slot.SameBuffer(target) {
		return Ptr{}, fmt.Errorf("link to %s with %d bytes written: %w", target, b.Len(), ErrOutOfBounds)
	}
	p := Ptr{mem: Segment{buf: slot.buf, base: slot.base, end: slot.base + PtrSize}}
	if err := p.set(target.base); err != nil {
		return Ptr{}, err
	}
	return p, nil
}

// PtrFromBuffer reinterprets the first two bytes of seg as a reference.
func PtrFromBuffer(seg Segment) (Ptr, error) {
	if seg.Len() < PtrSize {
		return Ptr{}, fmt.Errorf("pointer needs %d bytes, have %d: %w", PtrSize, seg.Len(), ErrTruncated)
	}
	return Ptr{mem: Segment{buf: seg.buf, base: seg.base, end: seg.base + PtrSize}}, nil
}

func (p Ptr) set(target int) error {
	disp := target - p.mem.base
	if err := checkDisplacement(disp); err != nil {
		return err
	}
	if disp == 0 {
		return fmt.Errorf("reference to itself: %w", ErrOutOfBounds)
	}
	common.PutFixed(p.mem.buf[p.mem.base:], int16(disp))
	return nil
}

// Offset returns the stored displacement.
func (p Ptr) Offset() int16 {
	return common.GetFixed[int16](p.mem.Bytes())
}

// IsNull reports whether the reference is unset.
func (p Ptr) IsNull() bool { return p.Offset() == 0 }

// Segment returns the two bytes holding the reference.
func (p Ptr) Segment() Segment { return p.mem }

// Target resolves the reference to the rest of the buffer starting at its
// target. Resolution never leaves the underlying buffer.
func (p Ptr) Target() (Segment, error) {
	disp := int(p.Offset())
	if disp == 0 {
		return Segment{}, ErrNullPtr
	}
	seg, err := p.mem.At(p.mem.base + disp)
	if err != nil {
		return Segment{}, fmt.Errorf("resolve pointer at %d: %w", p.mem.base, err)
	}
	return seg, nil
}

// Deref resolves p and reinterprets the target with read.
func Deref[V any](p Ptr, read func(Segment) (V, error)) (V, error) {
	seg, err := p.Target()
	if err != nil {
		var zero V
		return zero, err
	}
	return read(seg)
}
