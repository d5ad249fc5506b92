package common

import (
	"encoding/binary"
	"math"
	"reflect"
	"unsafe"
)

// Fixed lists the value kinds that have a fixed-width wire encoding.
type Fixed interface {
	bool |
		int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// NativeLittleEndian reports whether the host stores integers little-endian,
// i.e. whether wire bytes may be aliased as Go values without swapping.
var NativeLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// IsPowerOfTwo reports whether n is a power of two (1, 2, 4, ...).
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// AlignUp rounds off up to the next multiple of align. align must be a power of two.
func AlignUp(off, align int) int {
	mask := align - 1
	return (off + mask) &^ mask
}

// SizeOf returns the wire width of T. Wire width equals the Go size for every Fixed kind.
func SizeOf[T Fixed]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// PutFixed writes v little-endian into b[:SizeOf[T]()].
func PutFixed[T Fixed](b []byte, v T) {
	switch x := any(v).(type) {
	case bool:
		if x {
			b[0] = 1
		} else {
			b[0] = 0
		}
	case int8:
		b[0] = byte(x)
	case uint8:
		b[0] = x
	case int16:
		binary.LittleEndian.PutUint16(b, uint16(x))
	case uint16:
		binary.LittleEndian.PutUint16(b, x)
	case int32:
		binary.LittleEndian.PutUint32(b, uint32(x))
	case uint32:
		binary.LittleEndian.PutUint32(b, x)
	case int64:
		binary.LittleEndian.PutUint64(b, uint64(x))
	case uint64:
		binary.LittleEndian.PutUint64(b, x)
	case float32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(x))
	case float64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(x))
	}
}

// GetFixed decodes a little-endian T from b[:SizeOf[T]()].
func GetFixed[T Fixed](b []byte) T {
	var out T
	switch p := any(&out).(type) {
	case *bool:
		*p = b[0] != 0
	case *int8:
		*p = int8(b[0])
	case *uint8:
		*p = b[0]
	case *int16:
		*p = int16(binary.LittleEndian.Uint16(b))
	case *uint16:
		*p = binary.LittleEndian.Uint16(b)
	case *int32:
		*p = int32(binary.LittleEndian.Uint32(b))
	case *uint32:
		*p = binary.LittleEndian.Uint32(b)
	case *int64:
		*p = int64(binary.LittleEndian.Uint64(b))
	case *uint64:
		*p = binary.LittleEndian.Uint64(b)
	case *float32:
		*p = math.Float32frombits(binary.LittleEndian.Uint32(b))
	case *float64:
		*p = math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return out
}

// IsFixedKind reports whether k is a fixed-size primitive kind.
// Platform-sized int and uint are excluded: their width is not part of the wire.
func IsFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// FixedSize returns the byte width for fixed-size primitive kinds, -1 otherwise.
func FixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	default:
		return -1
	}
}

// PutFixedValue encodes the fixed-kind value v into b.
func PutFixedValue(b []byte, v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		PutFixed(b, v.Bool())
	case reflect.Int8:
		PutFixed(b, int8(v.Int()))
	case reflect.Uint8:
		PutFixed(b, uint8(v.Uint()))
	case reflect.Int16:
		PutFixed(b, int16(v.Int()))
	case reflect.Uint16:
		PutFixed(b, uint16(v.Uint()))
	case reflect.Int32:
		PutFixed(b, int32(v.Int()))
	case reflect.Uint32:
		PutFixed(b, uint32(v.Uint()))
	case reflect.Int64:
		PutFixed(b, v.Int())
	case reflect.Uint64:
		PutFixed(b, v.Uint())
	case reflect.Float32:
		PutFixed(b, float32(v.Float()))
	case reflect.Float64:
		PutFixed(b, v.Float())
	}
}

// SetFixed decodes a fixed-width primitive from b and sets dst.
func SetFixed(dst reflect.Value, b []byte, k reflect.Kind) {
	switch k {
	case reflect.Bool:
		dst.SetBool(GetFixed[bool](b))
	case reflect.Int8:
		dst.SetInt(int64(GetFixed[int8](b)))
	case reflect.Uint8:
		dst.SetUint(uint64(GetFixed[uint8](b)))
	case reflect.Int16:
		dst.SetInt(int64(GetFixed[int16](b)))
	case reflect.Uint16:
		dst.SetUint(uint64(GetFixed[uint16](b)))
	case reflect.Int32:
		dst.SetInt(int64(GetFixed[int32](b)))
	case reflect.Uint32:
		dst.SetUint(uint64(GetFixed[uint32](b)))
	case reflect.Int64:
		dst.SetInt(GetFixed[int64](b))
	case reflect.Uint64:
		dst.SetUint(GetFixed[uint64](b))
	case reflect.Float32:
		dst.SetFloat(float64(GetFixed[float32](b)))
	case reflect.Float64:
		dst.SetFloat(GetFixed[float64](b))
	}
}
