package frame

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies how a frame body is compressed.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecS2
	CodecLZ4
)

var codecNames = [...]string{"none", "zstd", "s2", "lz4"}

func (c Codec) valid() bool { return int(c) < len(codecNames) }

func (c Codec) String() string {
	if c.valid() {
		return codecNames[c]
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

// ParseCodec maps a codec name to its Codec.
func ParseCodec(s string) (Codec, error) {
	for i, name := range codecNames {
		if strings.EqualFold(s, name) {
			return Codec(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownCodec)
}

// zstdWindow caps the zstd history both ways, so a decoder never allocates
// more than this for a window no matter what a frame declares.
const zstdWindow = 8 << 20

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithWindowSize(zstdWindow))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxWindow(zstdWindow))
}

func compress(msg []byte, c Codec) ([]byte, Codec, error) {
	if len(msg) == 0 && c.valid() {
		return msg, CodecNone, nil
	}
	switch c {
	case CodecNone:
		return msg, CodecNone, nil
	case CodecZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(msg, nil), CodecZstd, nil
	case CodecS2:
		return s2.Encode(nil, msg), CodecS2, nil
	case CodecLZ4:
		out := make([]byte, lz4.CompressBlockBound(len(msg)))
		n, err := lz4.CompressBlock(msg, out, nil)
		if err != nil {
			return nil, 0, err
		}
		// Incompressible
		if n == 0 || n >= len(msg) {
			return msg, CodecNone, nil
		}
		return out[:n], CodecLZ4, nil
	default:
		return nil, 0, fmt.Errorf("codec %d: %w", c, ErrUnknownCodec)
	}
}

func decompress(body []byte, h Header) ([]byte, error) {
	raw := int(h.RawLen)
	var (
		out []byte
		err error
	)
	switch h.Codec {
	case CodecNone:
		out = body
	case CodecZstd:
		out, err = unzstd(body, raw)
	case CodecS2:
		var n int
		if n, err = s2.DecodedLen(body); err == nil && n != raw {
			return nil, fmt.Errorf("s2 body declares %d bytes, header %d: %w", n, raw, ErrCorrupt)
		}
		if err == nil {
			out, err = s2.Decode(make([]byte, raw), body)
		}
	case CodecLZ4:
		out = make([]byte, raw)
		var n int
		n, err = lz4.UncompressBlock(body, out)
		out = out[:n]
	default:
		return nil, fmt.Errorf("codec %d: %w", h.Codec, ErrUnknownCodec)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", h.Codec, err, ErrCorrupt)
	}
	if len(out) != raw {
		return nil, fmt.Errorf("%s body decodes to %d bytes, header %d: %w", h.Codec, len(out), raw, ErrCorrupt)
	}
	return out, nil
}

// unzstd streams body into a buffer of exactly raw bytes. Output past raw is
// never materialised, so a small body cannot inflate beyond the header.
func unzstd(body []byte, raw int) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, err
	}
	defer zstdDecoderPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(body)); err != nil {
		return nil, err
	}
	out := make([]byte, raw)
	if _, err := io.ReadFull(dec, out); err != nil {
		return nil, err
	}
	var extra [1]byte
	n, err := dec.Read(extra[:])
	if n > 0 {
		return nil, fmt.Errorf("body decodes past %d bytes", raw)
	}
	switch {
	case err == io.EOF:
		return out, nil
	case err == nil:
		return nil, fmt.Errorf("no end of body after %d bytes", raw)
	}
	return nil, err
}
