package lidl

import "errors"

var (
	ErrOutOfSpace       = errors.New("lidl: out of space")
	ErrValueTooLarge    = errors.New("lidl: value too large")
	ErrOutOfBounds      = errors.New("lidl: out of bounds")
	ErrTruncated        = errors.New("lidl: truncated")
	ErrInvalidEncoding  = errors.New("lidl: invalid encoding")
	ErrInvalidAlignment = errors.New("lidl: alignment must be a power of two")
	ErrNegativeSize     = errors.New("lidl: negative size")
	ErrNullPtr          = errors.New("lidl: null pointer")
	ErrMisaligned       = errors.New("lidl: misaligned data")
)
