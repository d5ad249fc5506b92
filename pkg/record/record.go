// Package record lays out plain Go structs the way the schema compiler lays
// out generated structs, so that a struct can be written into a lidl buffer
// and read back through the same bounds-checked views.
//
// Fixed-width fields are stored inline at their natural alignment. String
// fields, []string fields and slices of fixed-width values are stored
// elsewhere in the buffer and referenced from the struct body through a
// self-relative Ptr. Nested structs are stored inline.
package record

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/rawbytedev/lidl"
	"github.com/rawbytedev/lidl/internal/common"
)

var (
	ErrNotStruct    = errors.New("record: expected struct")
	ErrNotStructPtr = errors.New("record: expected pointer to struct")
	ErrUnsupported  = errors.New("record: unsupported type")
)

type Options struct {
	// UnsafeStrings makes Decode alias string payloads instead of copying
	// them. Decoded strings are then only valid while the buffer is.
	UnsafeStrings bool
}

// Codec encodes and decodes structs. Layout plans are computed once per type
// and cached; a Codec is safe for concurrent use.
type Codec struct {
	Opts Options
	plan map[reflect.Type]*structPlan
	mu   sync.RWMutex
}

type fieldKind uint8

const (
	fieldFixed fieldKind = iota
	fieldString
	fieldStrings
	fieldVector
	fieldStruct
)

type fieldPlan struct {
	idx    int
	kind   fieldKind
	elem   reflect.Kind // fixed kind of the field or of a vector element
	offset int
	sub    *structPlan
}

type structPlan struct {
	size   int
	align  int
	fields []fieldPlan
}

func New(opts Options) *Codec {
	return &Codec{
		Opts: opts,
		plan: make(map[reflect.Type]*structPlan),
	}
}

var (
	std         = New(Options{})
	stringsType = reflect.TypeOf([]string(nil))
)

// Layout returns the encoded size and alignment of v's struct body, which is
// what a reader passes to lidl.Root.
func Layout(v any) (size, align int, err error) {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return 0, 0, ErrNotStruct
	}
	p, err := std.getPlan(t)
	if err != nil {
		return 0, 0, err
	}
	return p.size, p.align, nil
}

func (c *Codec) getPlan(t reflect.Type) (*structPlan, error) {
	c.mu.RLock()
	if p, ok := c.plan[t]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check
	if p, ok := c.plan[t]; ok {
		return p, nil
	}
	p, err := buildPlan(t)
	if err != nil {
		return nil, err
	}
	c.plan[t] = p
	return p, nil
}

func buildPlan(t reflect.Type) (*structPlan, error) {
	p := &structPlan{align: 1}
	off := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fp := fieldPlan{idx: i}
		var size, align int
		switch k := sf.Type.Kind(); {
		case common.IsFixedKind(k):
			fp.kind, fp.elem = fieldFixed, k
			size = common.FixedSize(k)
			align = size
		case k == reflect.String:
			fp.kind = fieldString
			size, align = lidl.PtrSize, lidl.PtrAlign
		case k == reflect.Slice && sf.Type.ConvertibleTo(stringsType):
			fp.kind = fieldStrings
			size, align = lidl.PtrSize, lidl.PtrAlign
		case k == reflect.Slice && common.IsFixedKind(sf.Type.Elem().Kind()):
			fp.kind, fp.elem = fieldVector, sf.Type.Elem().Kind()
			size, align = lidl.PtrSize, lidl.PtrAlign
		case k == reflect.Struct:
			sub, err := buildPlan(sf.Type)
			if err != nil {
				return nil, err
			}
			fp.kind, fp.sub = fieldStruct, sub
			size, align = sub.size, sub.align
		default:
			return nil, fmt.Errorf("field %s.%s of type %s: %w", t.Name(), sf.Name, sf.Type, ErrUnsupported)
		}
		off = common.AlignUp(off, align)
		fp.offset = off
		off += size
		p.align = max(p.align, align)
		p.fields = append(p.fields, fp)
	}
	if off == 0 {
		off = 1
	}
	p.size = common.AlignUp(off, p.align)
	return p, nil
}

// Encode writes v into b and returns the struct body. Everything the body
// references is written first, so the body is the last allocation and can be
// found again with lidl.Root.
func (c *Codec) Encode(b *lidl.Builder, v any) (lidl.Segment, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return lidl.Segment{}, ErrNotStruct
	}
	p, err := c.getPlan(rv.Type())
	if err != nil {
		return lidl.Segment{}, err
	}

	m := b.Mark()
	body, err := encode(b, p, rv)
	if err != nil {
		b.Rewind(m)
		return lidl.Segment{}, err
	}
	return body, nil
}

func encode(b *lidl.Builder, p *structPlan, rv reflect.Value) (lidl.Segment, error) {
	var targets []lidl.Segment
	if err := writeOutOfLine(b, p, rv, &targets); err != nil {
		return lidl.Segment{}, err
	}
	body, err := b.Allocate(p.size, p.align)
	if err != nil {
		return lidl.Segment{}, err
	}
	next := 0
	if err := fillBody(b, p, rv, body, targets, &next); err != nil {
		return lidl.Segment{}, err
	}
	return body, nil
}

// writeOutOfLine writes referenced data in field order, depth first.
func writeOutOfLine(b *lidl.Builder, p *structPlan, rv reflect.Value, targets *[]lidl.Segment) error {
	for _, f := range p.fields {
		fv := rv.Field(f.idx)
		switch f.kind {
		case fieldString:
			s, err := lidl.NewString(b, fv.String())
			if err != nil {
				return err
			}
			*targets = append(*targets, s.Segment())
		case fieldStrings:
			vals := fv.Convert(stringsType).Interface().([]string)
			s, err := lidl.NewStringVector(b, vals)
			if err != nil {
				return err
			}
			*targets = append(*targets, s.Segment())
		case fieldVector:
			seg, err := writeVector(b, fv, f.elem)
			if err != nil {
				return err
			}
			*targets = append(*targets, seg)
		case fieldStruct:
			if err := writeOutOfLine(b, f.sub, fv, targets); err != nil {
				return err
			}
		}
	}
	return nil
}

// vectorLayout mirrors lidl.Vector: count, padding to the element width,
// then the elements.
func vectorLayout(k reflect.Kind) (elem, data, align int) {
	elem = common.FixedSize(k)
	return elem, common.AlignUp(lidl.VectorHeaderSize, elem), max(lidl.VectorHeaderSize, elem)
}

func writeVector(b *lidl.Builder, fv reflect.Value, k reflect.Kind) (lidl.Segment, error) {
	n := fv.Len()
	if n > math.MaxUint16 {
		return lidl.Segment{}, fmt.Errorf("vector of %d elements: %w", n, lidl.ErrValueTooLarge)
	}
	elem, data, align := vectorLayout(k)
	mem, err := b.Allocate(data+n*elem, align)
	if err != nil {
		return lidl.Segment{}, err
	}
	out := mem.Bytes()
	common.PutFixed(out, uint16(n))
	for i := 0; i < n; i++ {
		common.PutFixedValue(out[data+i*elem:], fv.Index(i))
	}
	return mem, nil
}

func fillBody(b *lidl.Builder, p *structPlan, rv reflect.Value, body lidl.Segment, targets []lidl.Segment, next *int) error {
	out := body.Bytes()
	for _, f := range p.fields {
		fv := rv.Field(f.idx)
		switch f.kind {
		case fieldFixed:
			common.PutFixedValue(out[f.offset:], fv)
		case fieldStruct:
			sub, _ := body.Slice(f.offset, f.sub.size)
			if err := fillBody(b, f.sub, fv, sub, targets, next); err != nil {
				return err
			}
		default:
			slot, _ := body.Slice(f.offset, lidl.PtrSize)
			if _, err := lidl.PtrAt(b, slot, targets[*next]); err != nil {
				return err
			}
			*next++
		}
	}
	return nil
}

// Decode reads the struct body at the start of seg into out, which must be a
// pointer to a struct of the encoded type.
func (c *Codec) Decode(seg lidl.Segment, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPtr
	}
	dst := v.Elem()
	p, err := c.getPlan(dst.Type())
	if err != nil {
		return err
	}
	body, err := seg.Slice(0, p.size)
	if err != nil {
		return fmt.Errorf("struct body of %d bytes: %w", p.size, lidl.ErrTruncated)
	}
	return c.readBody(p, dst, body)
}

func (c *Codec) readBody(p *structPlan, dst reflect.Value, body lidl.Segment) error {
	in := body.Bytes()
	for _, f := range p.fields {
		fv := dst.Field(f.idx)
		switch f.kind {
		case fieldFixed:
			common.SetFixed(fv, in[f.offset:], f.elem)
			continue
		case fieldStruct:
			sub, _ := body.Slice(f.offset, f.sub.size)
			if err := c.readBody(f.sub, fv, sub); err != nil {
				return err
			}
			continue
		}

		slot, _ := body.Slice(f.offset, lidl.PtrSize)
		ptr, err := lidl.PtrFromBuffer(slot)
		if err != nil {
			return err
		}
		target, err := ptr.Target()
		if err != nil {
			return fmt.Errorf("field %s: %w", dst.Type().Field(f.idx).Name, err)
		}
		switch f.kind {
		case fieldString:
			s, err := c.readString(target)
			if err != nil {
				return err
			}
			fv.SetString(s)
		case fieldStrings:
			vec, err := lidl.StringVectorFromBuffer(target)
			if err != nil {
				return err
			}
			if vec.Len() == 0 {
				fv.Set(reflect.Zero(fv.Type()))
				continue
			}
			out := reflect.MakeSlice(fv.Type(), vec.Len(), vec.Len())
			for i := 0; i < vec.Len(); i++ {
				el, err := vec.At(i)
				if err != nil {
					return err
				}
				s, err := c.stringOf(el)
				if err != nil {
					return err
				}
				out.Index(i).SetString(s)
			}
			fv.Set(out)
		case fieldVector:
			if err := readVector(fv, target, f.elem); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Codec) readString(seg lidl.Segment) (string, error) {
	s, err := lidl.StringFromBuffer(seg)
	if err != nil {
		return "", err
	}
	return c.stringOf(s)
}

func (c *Codec) stringOf(s lidl.String) (string, error) {
	if c.Opts.UnsafeStrings {
		return s.UnsafeGet()
	}
	return s.Get()
}

func readVector(fv reflect.Value, seg lidl.Segment, k reflect.Kind) error {
	if seg.Len() < lidl.VectorHeaderSize {
		return fmt.Errorf("vector header needs %d bytes, have %d: %w",
			lidl.VectorHeaderSize, seg.Len(), lidl.ErrTruncated)
	}
	elem, data, _ := vectorLayout(k)
	n := int(common.GetFixed[uint16](seg.Bytes()))
	if n == 0 {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	mem, err := seg.Slice(0, data+n*elem)
	if err != nil {
		return fmt.Errorf("vector declares %d elements, have %d bytes: %w", n, seg.Len(), lidl.ErrTruncated)
	}
	in := mem.Bytes()
	out := reflect.MakeSlice(fv.Type(), n, n)
	for i := 0; i < n; i++ {
		common.SetFixed(out.Index(i), in[data+i*elem:], k)
	}
	fv.Set(out)
	return nil
}
