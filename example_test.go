package lidl_test

import (
	"fmt"

	"github.com/rawbytedev/lidl"
)

func Example() {
	buf := make([]byte, 128)
	b := lidl.NewBuilder(buf, lidl.Options{})

	s, err := lidl.NewString(b, "hello rust")
	if err != nil {
		panic(err)
	}
	text, _ := s.Get()
	fmt.Println(text, s.Segment())

	r, err := lidl.ReadString(buf)
	if err != nil {
		panic(err)
	}
	fmt.Println(r.Size())
	// Output:
	// hello rust [0:12]
	// 10
}

// person is laid out the way a generated view for
//
//	struct person { name: string; age: u16 }
//
// would be: a reference to the name followed by the age.
type person struct {
	mem lidl.Segment
}

const personSize = lidl.PtrSize + 2

func newPerson(b *lidl.Builder, name string, age uint16) (person, error) {
	n, err := lidl.NewString(b, name)
	if err != nil {
		return person{}, err
	}
	mem, err := b.Allocate(personSize, 2)
	if err != nil {
		return person{}, err
	}
	slot, _ := mem.Slice(0, lidl.PtrSize)
	if _, err := lidl.PtrAt(b, slot, n.Segment()); err != nil {
		return person{}, err
	}
	mem.Bytes()[2], mem.Bytes()[3] = byte(age), byte(age>>8)
	return person{mem: mem}, nil
}

func personFromBuffer(seg lidl.Segment) (person, error) {
	mem, err := seg.Slice(0, personSize)
	if err != nil {
		return person{}, lidl.ErrTruncated
	}
	return person{mem: mem}, nil
}

func (p person) Name() (string, error) {
	ptr, err := lidl.PtrFromBuffer(p.mem)
	if err != nil {
		return "", err
	}
	s, err := lidl.Deref(ptr, lidl.StringFromBuffer)
	if err != nil {
		return "", err
	}
	return s.Get()
}

func (p person) Age() uint16 {
	field, _ := p.mem.From(lidl.PtrSize)
	age, _ := lidl.ScalarFromBuffer[uint16](field)
	return age.Get()
}

func Example_generatedView() {
	b := lidl.NewBuilder(make([]byte, 64), lidl.Options{})
	if _, err := newPerson(b, "ada", 36); err != nil {
		panic(err)
	}

	// a reader only has the message and the root's size
	msg := append([]byte(nil), b.Bytes()...)
	root, err := lidl.Root(msg, personSize)
	if err != nil {
		panic(err)
	}
	p, err := personFromBuffer(root)
	if err != nil {
		panic(err)
	}
	name, err := p.Name()
	if err != nil {
		panic(err)
	}
	fmt.Println(name, p.Age(), len(msg))
	// Output: ada 36 10
}
