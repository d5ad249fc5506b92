package lidl

import (
	"fmt"
	"strings"
	"testing"
	"testing/quick"

	"github.com/rawbytedev/lidl/internal/common"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestScalarRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	b := NewBuilder(buf, Options{})
	_, err := NewScalar(b, true)
	require.NoError(t, err)
	i, err := NewScalar(b, int32(-12412))
	require.NoError(t, err)
	require.Equal(t, 4, i.Segment().Base())
	f, err := NewScalar(b, 100.25)
	require.NoError(t, err)
	require.Equal(t, 8, f.Segment().Base())

	r, err := ScalarFromBuffer[int32](Wrap(buf[4:]))
	require.NoError(t, err)
	require.Equal(t, int32(-12412), r.Get())
	require.Equal(t, 100.25, f.Get())

	_, err = ScalarFromBuffer[uint64](Wrap(buf[:7]))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestVectorRoundTrip(t *testing.T) {
	buf := make([]byte, 1<<12)
	condition := func(vals []uint32) bool {
		b := NewBuilder(buf, Options{})
		_, err := b.Allocate(1, 1) // knock the cursor off alignment
		require.NoError(t, err)
		v, err := NewVector(b, vals)
		require.NoError(t, err)
		require.Zero(t, v.Segment().Base()%4)

		r, err := VectorFromBuffer[uint32](v.Segment())
		require.NoError(t, err)
		require.Equal(t, len(vals), r.Len())
		got := r.Values()
		require.Len(t, got, len(vals))
		for i := range vals {
			e, err := r.At(i)
			require.NoError(t, err)
			require.Equal(t, vals[i], e)
		}
		return len(vals) == 0 || fmt.Sprint(got) == fmt.Sprint(vals)
	}
	require.NoError(t, quick.Check(condition, nil))
}

func TestVectorLayout(t *testing.T) {
	buf := make([]byte, 64)
	b := NewBuilder(buf, Options{})
	v, err := NewVector(b, []float64{1.5, -2})
	require.NoError(t, err)
	require.Equal(t, 24, v.Segment().Len()) // 2 count, 6 pad, 16 data
	require.Equal(t, []byte{2, 0}, buf[:2])

	u, err := NewVector(b, []uint8{7, 8, 9})
	require.NoError(t, err)
	require.Equal(t, 24, u.Segment().Base())
	require.Equal(t, []byte{3, 0, 7, 8, 9}, u.Segment().Bytes())

	_, err = v.At(2)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = v.At(-1)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestVectorAlias(t *testing.T) {
	if !common.NativeLittleEndian {
		t.Skip("aliasing needs a little-endian host")
	}
	buf := make([]byte, 64)
	b := NewBuilder(buf, Options{})
	v, err := NewVector(b, []uint16{1, 2, 3})
	require.NoError(t, err)
	alias, err := v.Alias()
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 3}, alias)
	buf[2] = 42
	require.Equal(t, uint16(42), alias[0])

	// same bytes seen one byte further into a buffer are misaligned
	shifted := make([]byte, 65)
	copy(shifted[1:], buf)
	r, err := VectorFromBuffer[uint16](Wrap(shifted[1:]))
	require.NoError(t, err)
	_, err = r.Alias()
	require.ErrorIs(t, err, ErrMisaligned)
	require.Equal(t, []uint16{42, 2, 3}, r.Values())
}

func TestVectorTruncated(t *testing.T) {
	_, err := VectorFromBuffer[uint32](Wrap([]byte{1}))
	require.ErrorIs(t, err, ErrTruncated)
	_, err = VectorFromBuffer[uint32](Wrap([]byte{2, 0, 0, 0, 1, 0, 0, 0}))
	require.ErrorIs(t, err, ErrTruncated)
	empty, err := VectorFromBuffer[uint64](Wrap([]byte{0, 0}))
	require.NoError(t, err)
	require.Zero(t, empty.Len())
}

func TestStringVector(t *testing.T) {
	buf := make([]byte, 128)
	b := NewBuilder(buf, Options{})
	vals := []string{"alpha", "", "gamma"}
	v, err := NewStringVector(b, vals)
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())
	// strings first, then the table
	require.Equal(t, 16, v.Segment().Base())

	moved := append([]byte(nil), b.Bytes()...)
	seg, err := Wrap(moved).From(v.Segment().Base())
	require.NoError(t, err)
	r, err := StringVectorFromBuffer(seg)
	require.NoError(t, err)
	got, err := r.Strings()
	require.NoError(t, err)
	require.Equal(t, vals, got)

	_, err = r.At(3)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestStringVectorFailsWithoutWriting(t *testing.T) {
	cases := []struct {
		name string
		cap  int
		vals []string
		want error
	}{
		{"displacement", 1 << 17, []string{strings.Repeat("a", 40000)}, ErrValueTooLarge},
		{"late displacement", 1 << 17, []string{strings.Repeat("a", 20000), strings.Repeat("b", 20000)}, ErrValueTooLarge},
		{"table out of space", 19, []string{"abcdef", "ghij"}, ErrOutOfSpace},
		{"strings out of space", 8, []string{"abcdef", "ghij"}, ErrOutOfSpace},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBuilder(make([]byte, tc.cap), Options{Trace: true, Poison: true})
			_, err := b.Allocate(1, 1)
			require.NoError(t, err)
			before := b.Metrics()

			_, err = NewStringVector(b, tc.vals)
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, 1, b.Len())
			require.Equal(t, before, b.Metrics())
			require.Len(t, b.Allocations(), 1)
		})
	}

	// the same values fit once there is room for the table
	b := NewBuilder(make([]byte, 22), Options{})
	_, err := b.Allocate(1, 1)
	require.NoError(t, err)
	v, err := NewStringVector(b, []string{"abcdef", "ghij"})
	require.NoError(t, err)
	require.Equal(t, 22, b.Len())
	require.Equal(t, 16, v.Segment().Base())
}

func TestStringVectorCorruptReference(t *testing.T) {
	b := NewBuilder(make([]byte, 64), Options{})
	v, err := NewStringVector(b, []string{"ok"})
	require.NoError(t, err)
	msg := append([]byte(nil), b.Bytes()...)
	base := v.Segment().Base()
	msg[base+2], msg[base+3] = 0x00, 0x80 // -32768

	r, err := StringVectorFromBuffer(Wrap(msg[base:]))
	require.NoError(t, err)
	_, err = r.Strings()
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = StringVectorFromBuffer(Wrap([]byte{4, 0, 1, 0}))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestConcurrentReaders(t *testing.T) {
	b := NewBuilder(make([]byte, 256), Options{})
	vals := []string{"one", "two", "three", "four"}
	v, err := NewStringVector(b, vals)
	require.NoError(t, err)
	root, err := NewPtr(b, v.Segment())
	require.NoError(t, err)
	require.Equal(t, b.Len()-PtrSize, root.Segment().Base())
	msg := b.Bytes()

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			seg, err := Root(msg, PtrSize)
			if err != nil {
				return err
			}
			p, err := PtrFromBuffer(seg)
			if err != nil {
				return err
			}
			r, err := Deref(p, StringVectorFromBuffer)
			if err != nil {
				return err
			}
			got, err := r.Strings()
			if err != nil {
				return err
			}
			if fmt.Sprint(got) != fmt.Sprint(vals) {
				return fmt.Errorf("got %v", got)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
