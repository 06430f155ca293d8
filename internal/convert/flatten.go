package convert

import (
	"fmt"
	"reflect"
)

// flatten appends v's elements to dst in row-major order, the last
// axis varying fastest. The container's length is checked against the
// selection extent on every axis; the first mismatch aborts the walk.
func flatten(dst, v reflect.Value, dims []uint64, axis int) (reflect.Value, error) {
	if uint64(v.Len()) != dims[axis] {
		return dst, &DimensionError{Axis: axis, Got: uint64(v.Len()), Want: dims[axis]}
	}
	if axis == len(dims)-1 {
		return reflect.AppendSlice(dst, v), nil
	}
	var err error
	for i := 0; i < v.Len(); i++ {
		if dst, err = flatten(dst, v.Index(i), dims, axis+1); err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// unflatten rebuilds nested slices from the flat src, consuming
// exactly the element count the extents imply and resizing dst's
// children as it descends. dst must be settable. The consumed element
// count is returned through off.
func unflatten(dst, src reflect.Value, off uint64, dims []uint64, axis int) (uint64, error) {
	extent := dims[axis]
	if axis == len(dims)-1 {
		if remaining := uint64(src.Len()) - off; remaining < extent {
			return off, fmt.Errorf("%w: flat buffer exhausted on axis %d (%d elements left, extent %d)",
				ErrShape, axis, remaining, extent)
		}
		if uint64(dst.Len()) != extent {
			dst.Set(reflect.MakeSlice(dst.Type(), int(extent), int(extent)))
		}
		reflect.Copy(dst, src.Slice(int(off), int(off+extent)))
		return off + extent, nil
	}
	if uint64(dst.Len()) != extent {
		dst.Set(reflect.MakeSlice(dst.Type(), int(extent), int(extent)))
	}
	var err error
	for i := 0; i < int(extent); i++ {
		if off, err = unflatten(dst.Index(i), src, off, dims, axis+1); err != nil {
			return off, err
		}
	}
	return off, nil
}
