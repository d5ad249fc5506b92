package lidl

import (
	"testing"
)

func BenchmarkAllocate(b *testing.B) {
	bld := NewBuilder(make([]byte, 1<<16), Options{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := bld.Allocate(24, 8); err != nil {
			bld.Reset()
		}
	}
}

func BenchmarkNewString(b *testing.B) {
	bld := NewBuilder(make([]byte, 1<<16), Options{})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := NewString(bld, "hello rust"); err != nil {
			bld.Reset()
		}
	}
}

func BenchmarkStringGet(b *testing.B) {
	bld := NewBuilder(make([]byte, 64), Options{})
	s, _ := NewString(bld, "hello rust")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.Get()
	}
}

func BenchmarkStringUnsafeGet(b *testing.B) {
	bld := NewBuilder(make([]byte, 64), Options{})
	s, _ := NewString(bld, "hello rust")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.UnsafeGet()
	}
}

func BenchmarkStringVectorResolve(b *testing.B) {
	bld := NewBuilder(make([]byte, 256), Options{})
	v, _ := NewStringVector(bld, []string{"azerty", "hello", "world", "random"})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j := 0; j < v.Len(); j++ {
			s, _ := v.At(j)
			_, _ = s.UnsafeGet()
		}
	}
}

func BenchmarkVectorAlias(b *testing.B) {
	bld := NewBuilder(make([]byte, 256), Options{})
	v, _ := NewVector(bld, []float64{100.5, 165.63, 153.5})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = v.Alias()
	}
}
