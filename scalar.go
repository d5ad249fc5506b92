package lidl

import (
	"fmt"

	"github.com/rawbytedev/lidl/internal/common"
)

// Scalar is a view over one fixed-width little-endian value, stored at its
// natural alignment.
type Scalar[T common.Fixed] struct {
	mem Segment
}

// NewScalar writes v into b.
func NewScalar[T common.Fixed](b *Builder, v T) (Scalar[T], error) {
	size := common.SizeOf[T]()
	mem, err := b.Allocate(size, size)
	if err != nil {
		return Scalar[T]{}, err
	}
	common.PutFixed(mem.Bytes(), v)
	return Scalar[T]{mem: mem}, nil
}

// ScalarFromBuffer reinterprets the start of seg as a T.
func ScalarFromBuffer[T common.Fixed](seg Segment) (Scalar[T], error) {
	size := common.SizeOf[T]()
	mem, err := seg.Slice(0, size)
	if err != nil {
		return Scalar[T]{}, fmt.Errorf("scalar needs %d bytes, have %d: %w", size, seg.Len(), ErrTruncated)
	}
	return Scalar[T]{mem: mem}, nil
}

func (s Scalar[T]) Get() T { return common.GetFixed[T](s.mem.Bytes()) }

func (s Scalar[T]) Segment() Segment { return s.mem }
