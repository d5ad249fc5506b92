package lidl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPtrResolvesToTarget(t *testing.T) {
	buf := make([]byte, 64)
	b := NewBuilder(buf, Options{})
	s, err := NewString(b, "hello")
	require.NoError(t, err)

	p, err := NewPtr(b, s.Segment())
	require.NoError(t, err)
	require.Equal(t, 8, p.Segment().Base()) // 7 bytes of string, padded to 2
	require.Equal(t, int16(-8), p.Offset())
	require.False(t, p.IsNull())

	got, err := Deref(p, StringFromBuffer)
	require.NoError(t, err)
	v, err := got.Get()
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestPtrRelocation(t *testing.T) {
	buf := make([]byte, 64)
	b := NewBuilder(buf, Options{})
	_, err := NewString(b, "padding")
	require.NoError(t, err)
	s, err := NewString(b, "target")
	require.NoError(t, err)
	p, err := NewPtr(b, s.Segment())
	require.NoError(t, err)
	at := p.Segment().Base()

	moved := make([]byte, 256)
	copy(moved[100:], b.Bytes())
	msg := moved[100 : 100+b.Len()]

	slot, err := Wrap(msg).Slice(at, PtrSize)
	require.NoError(t, err)
	q, err := PtrFromBuffer(slot)
	require.NoError(t, err)
	target, err := q.Target()
	require.NoError(t, err)
	require.Equal(t, s.Segment().Base(), target.Base())
	got, err := Deref(q, StringFromBuffer)
	require.NoError(t, err)
	v, err := got.Get()
	require.NoError(t, err)
	require.Equal(t, "target", v)
}

func TestPtrWriteBeforeLink(t *testing.T) {
	buf := make([]byte, 64)
	b := NewBuilder(buf, Options{})
	_, err := NewString(b, "abc")
	require.NoError(t, err)

	unwritten, err := Wrap(buf).Slice(32, 4)
	require.NoError(t, err)
	_, err = NewPtr(b, unwritten)
	require.ErrorIs(t, err, ErrOutOfBounds)

	other := NewBuilder(make([]byte, 64), Options{})
	foreign, err := NewString(other, "abc")
	require.NoError(t, err)
	_, err = NewPtr(b, foreign.Segment())
	require.ErrorIs(t, err, ErrOutOfBounds)
	require.Equal(t, 5, b.Len())
}

func TestPtrDisplacementTooLarge(t *testing.T) {
	b := NewBuilder(make([]byte, 1<<17), Options{})
	s, err := NewString(b, "far")
	require.NoError(t, err)
	_, err = b.Allocate(40000, 1)
	require.NoError(t, err)
	before := b.Len()
	_, err = NewPtr(b, s.Segment())
	require.ErrorIs(t, err, ErrValueTooLarge)
	require.Equal(t, before, b.Len())
}

func TestPtrOutOfBounds(t *testing.T) {
	cases := map[string][]byte{
		"before start": {0xf0, 0xff},
		"past end":     {0x10, 0x00},
		"at end":       {0x02, 0x00},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := PtrFromBuffer(Wrap(in))
			require.NoError(t, err)
			_, err = p.Target()
			require.ErrorIs(t, err, ErrOutOfBounds)
			_, err = Deref(p, StringFromBuffer)
			require.ErrorIs(t, err, ErrOutOfBounds)
		})
	}
}

func TestPtrNullAndTruncated(t *testing.T) {
	p, err := PtrFromBuffer(Wrap([]byte{0, 0}))
	require.NoError(t, err)
	require.True(t, p.IsNull())
	_, err = p.Target()
	require.ErrorIs(t, err, ErrNullPtr)

	_, err = PtrFromBuffer(Wrap([]byte{1}))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestPtrTargetTruncatedString(t *testing.T) {
	// a reference to a string whose declared length runs off the buffer
	in := []byte{9, 0, 'a', 'b', 0xfc, 0xff}
	slot, err := Wrap(in).Slice(4, PtrSize)
	require.NoError(t, err)
	p, err := PtrFromBuffer(slot)
	require.NoError(t, err)
	_, err = Deref(p, StringFromBuffer)
	require.ErrorIs(t, err, ErrTruncated)
}

func TestRoot(t *testing.T) {
	b := NewBuilder(make([]byte, 64), Options{})
	s, err := NewString(b, "root")
	require.NoError(t, err)
	_, err = NewPtr(b, s.Segment())
	require.NoError(t, err)

	seg, err := Root(b.Bytes(), PtrSize)
	require.NoError(t, err)
	p, err := PtrFromBuffer(seg)
	require.NoError(t, err)
	got, err := Deref(p, StringFromBuffer)
	require.NoError(t, err)
	v, err := got.Get()
	require.NoError(t, err)
	require.Equal(t, "root", v)

	_, err = Root(b.Bytes(), 100)
	require.ErrorIs(t, err, ErrTruncated)
}
