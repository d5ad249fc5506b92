package lidl

import (
	"fmt"
	"unsafe"
)

// Segment is a borrowed range [base, end) of a larger buffer. Views keep the
// whole buffer so that self-relative references can be resolved and
// bounds-checked against it, but they never hold absolute addresses.
type Segment struct {
	buf       []byte
	base, end int
}

// Wrap returns a segment covering all of b.
func Wrap(b []byte) Segment {
	return Segment{buf: b, base: 0, end: len(b)}
}

// Base is the offset of the segment inside its buffer.
func (s Segment) Base() int { return s.base }

// End is the offset one past the last byte of the segment.
func (s Segment) End() int { return s.end }

// Len is the number of bytes in the segment.
func (s Segment) Len() int { return s.end - s.base }

// Bytes returns the segment's bytes. The capacity is clipped so an append
// can never spill into the rest of the buffer.
func (s Segment) Bytes() []byte {
	return s.buf[s.base:s.end:s.end]
}

// Buffer returns the whole underlying buffer.
func (s Segment) Buffer() []byte { return s.buf }

// Slice returns the n bytes starting at off, relative to the segment.
func (s Segment) Slice(off, n int) (Segment, error) {
	if off < 0 || n < 0 || off > s.Len() || n > s.Len()-off {
		return Segment{}, fmt.Errorf("slice [%d:+%d] of %d bytes: %w", off, n, s.Len(), ErrOutOfBounds)
	}
	return Segment{buf: s.buf, base: s.base + off, end: s.base + off + n}, nil
}

// From returns the remainder of the segment starting at off.
func (s Segment) From(off int) (Segment, error) {
	return s.Slice(off, s.Len()-off)
}

// At returns the rest of the underlying buffer starting at the absolute
// offset off. It is how a resolved reference becomes a readable range.
func (s Segment) At(off int) (Segment, error) {
	if off < 0 || off >= len(s.buf) {
		return Segment{}, fmt.Errorf("offset %d in buffer of %d bytes: %w", off, len(s.buf), ErrOutOfBounds)
	}
	return Segment{buf: s.buf, base: off, end: len(s.buf)}, nil
}

// SameBuffer reports whether s and o borrow the same buffer.
func (s Segment) SameBuffer(o Segment) bool {
	return len(s.buf) == len(o.buf) && unsafe.SliceData(s.buf) == unsafe.SliceData(o.buf)
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d:%d]", s.base, s.end)
}
