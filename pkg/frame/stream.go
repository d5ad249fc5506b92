package frame

import (
	"errors"
	"fmt"
	"io"

	"github.com/rawbytedev/lidl"
)

// Write frames msg and writes it to w.
func Write(w io.Writer, msg []byte, opts Options) error {
	f, err := Encode(msg, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(f)
	return err
}

// Read reads exactly one frame from r and returns its message.
func Read(r io.Reader, opts Options) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, readErr(err)
	}
	h, err := ParseHeader(hdr[:], opts)
	if err != nil {
		return nil, err
	}
	f := make([]byte, h.Size())
	copy(f, hdr[:])
	if _, err := io.ReadFull(r, f[HeaderSize:]); err != nil {
		return nil, readErr(err)
	}
	return Decode(f, opts)
}

func readErr(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("read frame: %w", lidl.ErrTruncated)
	}
	return err
}
