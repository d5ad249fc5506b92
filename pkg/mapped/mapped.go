// Package mapped loads persisted buffers by mapping them into memory.
//
// A mapped buffer sits at whatever address the kernel picked, so every view
// over it is a relocated view: self-relative references resolve exactly as
// they did in the buffer that was written.
package mapped

import (
	"errors"
	"io"
	"os"

	"github.com/rawbytedev/lidl"
)

var ErrClosed = errors.New("mapped: file closed")

// File is a read-only mapping of a whole file.
type File struct {
	data  []byte
	unmap func([]byte) error
	f     *os.File
}

// Open maps the file at path read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := fi.Size()
	if size < 0 || int64(int(size)) != size {
		f.Close()
		return nil, errors.New("mapped: file size out of range")
	}
	if size == 0 {
		return &File{f: f}, nil
	}
	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{data: data, unmap: unmap, f: f}, nil
}

// Bytes returns the mapped contents. The slice must not be written to and is
// invalid after Close.
func (m *File) Bytes() []byte { return m.data }

// Segment returns the contents as a lidl segment.
func (m *File) Segment() lidl.Segment { return lidl.Wrap(m.data) }

func (m *File) Len() int { return len(m.data) }

// ReadAt implements io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if m.f == nil {
		return 0, ErrClosed
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. Calling it more than once is a no-op.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.data != nil && m.unmap != nil {
		err = m.unmap(m.data)
	}
	m.data, m.unmap = nil, nil
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
