package dtype

import (
	"reflect"
	"unsafe"
)

// SliceBytes returns a borrowed byte view over the backing array of a slice
// of fixed-size elements. The view aliases the slice's storage; it stays
// valid only while the slice header is unchanged.
func SliceBytes(v reflect.Value, elemSize int) []byte {
	n := v.Len() * elemSize
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.UnsafePointer()), n)
}

// Bytes returns a borrowed byte view over one addressable value of the
// given total byte size. Used for scalars and for nested fixed-size arrays,
// both of which are contiguous in memory.
func Bytes(v reflect.Value, size int) []byte {
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.Addr().UnsafePointer()), size)
}

// StringBytes returns a borrowed read-only byte view of a string's storage.
// The bytes must not be written to and must not outlive the string.
func StringBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
