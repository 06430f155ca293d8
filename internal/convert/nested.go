package convert

import (
	"reflect"

	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// nestedConverter moves slices of slices through a flat scratch slice
// of the leaf element type. The scratch backs the transfer buffer, so
// it must stay referenced for the whole call; the converter holds it.
type nestedConverter struct {
	v    reflect.Value
	dims []uint64
	elem reflect.Type
	size int

	scratch reflect.Value
}

func (c *nestedConverter) total() uint64 {
	n := uint64(1)
	for _, d := range c.dims {
		n *= d
	}
	return n
}

func (c *nestedConverter) PrepareWrite() (*store.Buffer, error) {
	flat := reflect.MakeSlice(reflect.SliceOf(c.elem), 0, int(c.total()))
	flat, err := flatten(flat, c.v, c.dims, 0)
	if err != nil {
		return nil, err
	}
	c.scratch = flat
	return &store.Buffer{Bytes: dtype.SliceBytes(flat, c.size)}, nil
}

func (c *nestedConverter) PrepareRead() (*store.Buffer, error) {
	n := int(c.total())
	c.scratch = reflect.MakeSlice(reflect.SliceOf(c.elem), n, n)
	return &store.Buffer{Bytes: dtype.SliceBytes(c.scratch, c.size)}, nil
}

func (c *nestedConverter) Finish(*store.Buffer) error {
	_, err := unflatten(c.v, c.scratch, 0, c.dims, 0)
	return err
}
