// Package lidl is a zero-copy message runtime: values are built directly
// inside a flat byte buffer and read back as typed views over the same bytes,
// with no intermediate object graph and no parse step.
//
// # Building
//
// A Builder hands out aligned, non-overlapping ranges of a caller-owned
// buffer, front to back:
//
//	buf := make([]byte, 128)
//	b := lidl.NewBuilder(buf, lidl.Options{})
//	s, err := lidl.NewString(b, "hello rust")
//
// # Reading
//
// Any byte range can be reinterpreted without a Builder:
//
//	s, err := lidl.ReadString(msg)
//	text, err := s.Get()
//
// Every read path checks lengths before touching bytes, so buffers from disk
// or the network can be read directly; malformed input yields ErrTruncated,
// ErrOutOfBounds or ErrInvalidEncoding, never a panic.
//
// # References
//
// A Ptr stores a signed displacement from its own offset to its target.
// Targets must be written before the reference (write-before-link), and
// since nothing stores an absolute address the finished buffer can be copied
// or memory-mapped anywhere and read as-is.
//
// # Wire format
//
// All integers are little-endian.
//
//	String        [len uint16][len bytes]                 align 1
//	Ptr           [displacement int16]                    align 2
//	Scalar[T]     [T]                                     align sizeof(T)
//	Vector[T]     [count uint16][pad][count × T]          align max(2, sizeof(T))
//	StringVector  [count uint16][count × Ptr]             align 2
//
// There is no header, version or checksum at this layer; see package frame.
package lidl
