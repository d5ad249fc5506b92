package lidl

import (
	"fmt"
	"math"
	"unicode/utf8"
	"unsafe"

	"github.com/rawbytedev/lidl/internal/common"
)

const (
	// StringHeaderSize is the width of the length prefix.
	StringHeaderSize = 2
	// MaxStringLen is the longest payload the length prefix can describe.
	MaxStringLen = math.MaxUint16
)

// String is a zero-copy view over a length-prefixed UTF-8 string:
//
//	[len uint16 LE][len bytes]
//
// No terminator, no padding, alignment 1. The view borrows its buffer.
type String struct {
	mem Segment
}

// NewString writes s into b and returns a view over the written bytes.
// Values longer than MaxStringLen are rejected before anything is allocated.
func NewString(b *Builder, s string) (String, error) {
	if len(s) > MaxStringLen {
		return String{}, fmt.Errorf("string of %d bytes: %w", len(s), ErrValueTooLarge)
	}
	mem, err := b.Allocate(StringHeaderSize+len(s), 1)
	if err != nil {
		return String{}, err
	}
	out := mem.Bytes()
	common.PutFixed(out, uint16(len(s)))
	copy(out[StringHeaderSize:], s)
	return String{mem: mem}, nil
}

// StringFromBuffer reinterprets seg as a string. seg may be longer than the
// encoding; the view only covers the declared length.
func StringFromBuffer(seg Segment) (String, error) {
	if seg.Len() < StringHeaderSize {
		return String{}, fmt.Errorf("string header needs %d bytes, have %d: %w",
			StringHeaderSize, seg.Len(), ErrTruncated)
	}
	n := int(common.GetFixed[uint16](seg.Bytes()))
	if seg.Len()-StringHeaderSize < n {
		return String{}, fmt.Errorf("string declares %d bytes, have %d: %w",
			n, seg.Len()-StringHeaderSize, ErrTruncated)
	}
	mem, _ := seg.Slice(0, StringHeaderSize+n)
	return String{mem: mem}, nil
}

// ReadString is StringFromBuffer over a plain byte slice.
func ReadString(b []byte) (String, error) {
	return StringFromBuffer(Wrap(b))
}

// Size returns the declared payload length without touching the payload.
func (s String) Size() int {
	return int(common.GetFixed[uint16](s.mem.Bytes()))
}

// Payload returns the payload bytes, aliasing the buffer.
func (s String) Payload() []byte {
	return s.mem.Bytes()[StringHeaderSize:]
}

// Get returns the payload as a string. The result is a copy.
func (s String) Get() (string, error) {
	p := s.Payload()
	if !utf8.Valid(p) {
		return "", fmt.Errorf("string at %d: %w", s.mem.base, ErrInvalidEncoding)
	}
	return string(p), nil
}

// UnsafeGet returns the payload as a string aliasing the buffer. The caller
// must not modify or reuse the buffer while the string is alive.
func (s String) UnsafeGet() (string, error) {
	p := s.Payload()
	if !utf8.Valid(p) {
		return "", fmt.Errorf("string at %d: %w", s.mem.base, ErrInvalidEncoding)
	}
	if len(p) == 0 {
		return "", nil
	}
	return unsafe.String(&p[0], len(p)), nil
}

// Segment returns the exact encoded bytes: prefix plus payload.
func (s String) Segment() Segment { return s.mem }
