package convert

import (
	"reflect"

	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// scalarConverter lends a single value's storage to the engine.
type scalarConverter struct {
	v    reflect.Value
	size int

	scratch reflect.Value // addressable copy when v is not
}

func (c *scalarConverter) PrepareWrite() (*store.Buffer, error) {
	v := c.v
	if !v.CanAddr() {
		c.scratch = reflect.New(v.Type()).Elem()
		c.scratch.Set(v)
		v = c.scratch
	}
	return &store.Buffer{Bytes: dtype.Bytes(v, c.size)}, nil
}

func (c *scalarConverter) PrepareRead() (*store.Buffer, error) {
	return &store.Buffer{Bytes: dtype.Bytes(c.v, c.size)}, nil
}

// Finish is a no-op: the engine filled the value's storage in place.
func (c *scalarConverter) Finish(*store.Buffer) error { return nil }

// flatConverter lends a flat slice's backing storage to the engine,
// resizing the slice to the selection extent first on reads.
type flatConverter struct {
	v      reflect.Value
	extent uint64
	size   int
}

func (c *flatConverter) PrepareWrite() (*store.Buffer, error) {
	if uint64(c.v.Len()) != c.extent {
		return nil, &DimensionError{Axis: 0, Got: uint64(c.v.Len()), Want: c.extent}
	}
	return &store.Buffer{Bytes: dtype.SliceBytes(c.v, c.size)}, nil
}

func (c *flatConverter) PrepareRead() (*store.Buffer, error) {
	if uint64(c.v.Len()) != c.extent {
		c.v.Set(reflect.MakeSlice(c.v.Type(), int(c.extent), int(c.extent)))
	}
	return &store.Buffer{Bytes: dtype.SliceBytes(c.v, c.size)}, nil
}

func (c *flatConverter) Finish(*store.Buffer) error { return nil }

// fixedConverter lends a fixed-size array's contiguous storage to the
// engine. Go lays multi-dimensional arrays out row-major, so the whole
// nesting is one transfer buffer.
type fixedConverter struct {
	v     reflect.Value
	bytes int

	scratch reflect.Value
}

func newFixedConverter(v reflect.Value, dims []uint64, size int) (*fixedConverter, error) {
	t := v.Type()
	total := 1
	for axis, want := range dims {
		if uint64(t.Len()) != want {
			return nil, &DimensionError{Axis: axis, Got: uint64(t.Len()), Want: want}
		}
		total *= t.Len()
		t = t.Elem()
	}
	return &fixedConverter{v: v, bytes: total * size}, nil
}

func (c *fixedConverter) PrepareWrite() (*store.Buffer, error) {
	v := c.v
	if !v.CanAddr() {
		c.scratch = reflect.New(v.Type()).Elem()
		c.scratch.Set(v)
		v = c.scratch
	}
	return &store.Buffer{Bytes: dtype.Bytes(v, c.bytes)}, nil
}

func (c *fixedConverter) PrepareRead() (*store.Buffer, error) {
	return &store.Buffer{Bytes: dtype.Bytes(c.v, c.bytes)}, nil
}

func (c *fixedConverter) Finish(*store.Buffer) error { return nil }
