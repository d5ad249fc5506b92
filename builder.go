package lidl

import (
	"fmt"

	"github.com/rawbytedev/lidl/internal/common"
)

// PoisonByte fills fresh allocations when Options.Poison is set.
const PoisonByte = 0xCC

// Options tune a Builder for debugging.
type Options struct {
	Poison bool // fill allocations with PoisonByte so unwritten bytes stand out
	Trace  bool // record every allocation, see Allocations
}

// Allocation describes one successful Allocate call.
type Allocation struct {
	Offset  int
	Size    int
	Align   int
	Padding int
}

// Builder is a bump allocator over a fixed, caller-owned buffer. Messages are
// built front to back in a single pass: there is no per-allocation
// bookkeeping and nothing is ever freed individually.
//
// A Builder is not safe for concurrent use. Exactly one goroutine may build
// into it at a time; once building is done, views over the buffer may be
// read from any number of goroutines.
type Builder struct {
	Opts    Options
	buf     []byte
	cur     int
	padding int
	count   int
	trace   []Allocation
}

// NewBuilder returns a builder writing into buf. buf must outlive every view
// produced from it.
//
// Alignment is applied to offsets within buf, so aligned offsets are aligned
// addresses only when buf itself starts at an address aligned for the widest
// type the message holds. Buffers from make are 8-byte aligned.
func NewBuilder(buf []byte, opts Options) *Builder {
	return &Builder{Opts: opts, buf: buf}
}

// Allocate reserves size bytes whose offset is a multiple of align. Padding
// bytes inserted before the range are left untouched. On failure the cursor
// does not move.
func (b *Builder) Allocate(size, align int) (Segment, error) {
	if size < 0 {
		return Segment{}, fmt.Errorf("allocate %d bytes: %w", size, ErrNegativeSize)
	}
	if !common.IsPowerOfTwo(align) {
		return Segment{}, fmt.Errorf("allocate with alignment %d: %w", align, ErrInvalidAlignment)
	}
	start := common.AlignUp(b.cur, align)
	if start > len(b.buf) || size > len(b.buf)-start {
		return Segment{}, fmt.Errorf("allocate %d bytes (align %d) at %d of %d: %w",
			size, align, b.cur, len(b.buf), ErrOutOfSpace)
	}
	pad := start - b.cur
	b.cur = start + size
	b.padding += pad
	b.count++
	if b.Opts.Trace {
		b.trace = append(b.trace, Allocation{Offset: start, Size: size, Align: align, Padding: pad})
	}
	seg := Segment{buf: b.buf, base: start, end: b.cur}
	if b.Opts.Poison {
		for i := seg.base; i < seg.end; i++ {
			b.buf[i] = PoisonByte
		}
	}
	return seg, nil
}

// Len is the cursor: the number of bytes written so far, padding included.
func (b *Builder) Len() int { return b.cur }

// Cap is the capacity of the underlying buffer.
func (b *Builder) Cap() int { return len(b.buf) }

// Remaining is the number of bytes left after the cursor.
func (b *Builder) Remaining() int { return len(b.buf) - b.cur }

// Bytes returns the written prefix of the buffer: the finished message.
func (b *Builder) Bytes() []byte { return b.buf[:b.cur:b.cur] }

// Segment returns the written prefix as a segment of the whole buffer.
func (b *Builder) Segment() Segment { return Segment{buf: b.buf, base: 0, end: b.cur} }

// Allocations returns the allocation trace. It is empty unless Opts.Trace is set.
func (b *Builder) Allocations() []Allocation { return b.trace }

// Reset rewinds the cursor so the buffer can hold a new message. Every view
// over the previous message becomes invalid.
func (b *Builder) Reset() {
	b.cur = 0
	b.padding = 0
	b.count = 0
	b.trace = b.trace[:0]
}

// Mark records the builder state so a multi-allocation write can be undone.
type Mark struct {
	cur     int
	padding int
	count   int
	trace   int
}

// Mark returns the current state for a later Rewind.
func (b *Builder) Mark() Mark {
	return Mark{cur: b.cur, padding: b.padding, count: b.count, trace: len(b.trace)}
}

// Rewind restores the state recorded by m, dropping every allocation made
// since. Views over the dropped allocations become invalid. Marks taken
// before a Reset must not be used after it.
func (b *Builder) Rewind(m Mark) {
	if m.cur > b.cur {
		return
	}
	b.cur = m.cur
	b.padding = m.padding
	b.count = m.count
	if m.trace <= len(b.trace) {
		b.trace = b.trace[:m.trace]
	}
}

// written reports whether seg lies inside this builder's written prefix.
func (b *Builder) written(seg Segment) bool {
	return seg.SameBuffer(Wrap(b.buf)) && seg.base >= 0 && seg.end <= b.cur
}

// BuilderMetrics is a snapshot of builder usage.
type BuilderMetrics struct {
	Used        int     // bytes before the cursor
	Capacity    int     // buffer length
	Padding     int     // alignment padding included in Used
	Allocations int     // successful Allocate calls
	Utilization float64 // Used / Capacity
}

// Metrics reports how much of the buffer is in use.
func (b *Builder) Metrics() BuilderMetrics {
	m := BuilderMetrics{
		Used:        b.cur,
		Capacity:    len(b.buf),
		Padding:     b.padding,
		Allocations: b.count,
	}
	if m.Capacity > 0 {
		m.Utilization = float64(m.Used) / float64(m.Capacity)
	}
	return m
}
