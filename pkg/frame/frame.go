// Package frame wraps a finished lidl message for storage or transport.
//
// A frame is
//
//	magic "LF" | version u8 | codec u8 | rawLen u32 | bodyLen u32 | body | xxhash64 u64
//
// all little-endian. The checksum covers every byte before it. The body is
// the message, compressed with the recorded codec. The frame adds no
// alignment: readers that alias the message in place should decode with
// CodecNone into an aligned buffer.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/OneOfOne/xxhash"
	"github.com/rawbytedev/lidl"
)

const (
	Magic   = "LF"
	Version = 1

	HeaderSize  = 12
	TrailerSize = 8

	// DefaultMaxSize bounds the decoded size of a frame when Options.MaxSize is zero.
	DefaultMaxSize = 64 << 20
)

var (
	ErrBadMagic     = errors.New("frame: bad magic")
	ErrVersion      = errors.New("frame: unsupported version")
	ErrChecksum     = errors.New("frame: checksum mismatch")
	ErrUnknownCodec = errors.New("frame: unknown codec")
	ErrTooLarge     = errors.New("frame: too large")
	ErrCorrupt      = errors.New("frame: corrupt body")
)

type Options struct {
	Codec   Codec
	MaxSize int // largest message Decode and Read accept; 0 means DefaultMaxSize
}

func (o Options) maxSize() int {
	if o.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return o.MaxSize
}

// Header is the fixed-size prefix of a frame.
type Header struct {
	Version uint8
	Codec   Codec
	RawLen  uint32
	BodyLen uint32
}

func (h Header) put(b []byte) {
	copy(b, Magic)
	b[2] = h.Version
	b[3] = byte(h.Codec)
	binary.LittleEndian.PutUint32(b[4:], h.RawLen)
	binary.LittleEndian.PutUint32(b[8:], h.BodyLen)
}

// ParseHeader validates and decodes the first HeaderSize bytes of b.
func ParseHeader(b []byte, opts Options) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("frame header needs %d bytes, have %d: %w", HeaderSize, len(b), lidl.ErrTruncated)
	}
	if string(b[:2]) != Magic {
		return Header{}, fmt.Errorf("%q: %w", b[:2], ErrBadMagic)
	}
	h := Header{
		Version: b[2],
		Codec:   Codec(b[3]),
		RawLen:  binary.LittleEndian.Uint32(b[4:]),
		BodyLen: binary.LittleEndian.Uint32(b[8:]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("version %d: %w", h.Version, ErrVersion)
	}
	if !h.Codec.valid() {
		return Header{}, fmt.Errorf("codec %d: %w", h.Codec, ErrUnknownCodec)
	}
	limit := uint64(opts.maxSize())
	if uint64(h.RawLen) > limit || uint64(h.BodyLen) > limit+limit/8+64 {
		return Header{}, fmt.Errorf("frame of %d bytes (%d encoded), limit %d: %w", h.RawLen, h.BodyLen, limit, ErrTooLarge)
	}
	return h, nil
}

// Size is the total length of the frame h describes.
func (h Header) Size() int {
	return HeaderSize + int(h.BodyLen) + TrailerSize
}

// Encode frames msg using opts.Codec. Incompressible input may be stored
// with CodecNone instead.
func Encode(msg []byte, opts Options) ([]byte, error) {
	if uint64(len(msg)) > math.MaxUint32 || len(msg) > opts.maxSize() {
		return nil, fmt.Errorf("message of %d bytes: %w", len(msg), ErrTooLarge)
	}
	body, codec, err := compress(msg, opts.Codec)
	if err != nil {
		return nil, err
	}
	h := Header{Version: Version, Codec: codec, RawLen: uint32(len(msg)), BodyLen: uint32(len(body))}
	out := make([]byte, h.Size())
	h.put(out)
	n := HeaderSize + copy(out[HeaderSize:], body)
	binary.LittleEndian.PutUint64(out[n:], xxhash.Checksum64(out[:n]))
	return out, nil
}

// Decode verifies a frame and returns the message. With CodecNone the result
// aliases frame. Bytes after the frame are ignored.
func Decode(frame []byte, opts Options) ([]byte, error) {
	h, err := ParseHeader(frame, opts)
	if err != nil {
		return nil, err
	}
	if len(frame) < h.Size() {
		return nil, fmt.Errorf("frame needs %d bytes, have %d: %w", h.Size(), len(frame), lidl.ErrTruncated)
	}
	end := HeaderSize + int(h.BodyLen)
	want := binary.LittleEndian.Uint64(frame[end:])
	if got := xxhash.Checksum64(frame[:end]); got != want {
		return nil, fmt.Errorf("got %016x, want %016x: %w", got, want, ErrChecksum)
	}
	return decompress(frame[HeaderSize:end:end], h)
}
