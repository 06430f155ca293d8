package convert

import (
	"fmt"
	"reflect"

	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// stringConverter bridges []string and the engine's per-element byte
// slices. Writes lend each string's own storage to the engine; reads
// copy the engine-owned bytes into fresh strings during Finish, before
// the caller reclaims the engine's lease.
type stringConverter struct {
	v      reflect.Value
	extent uint64
}

func (c *stringConverter) PrepareWrite() (*store.Buffer, error) {
	if uint64(c.v.Len()) != c.extent {
		return nil, &DimensionError{Axis: 0, Got: uint64(c.v.Len()), Want: c.extent}
	}
	views := make([][]byte, c.v.Len())
	for i := range views {
		views[i] = dtype.StringBytes(c.v.Index(i).String())
	}
	return &store.Buffer{Strings: views}, nil
}

func (c *stringConverter) PrepareRead() (*store.Buffer, error) {
	return &store.Buffer{}, nil
}

func (c *stringConverter) Finish(buf *store.Buffer) error {
	if uint64(len(buf.Strings)) != c.extent {
		return fmt.Errorf("%w: engine returned %d strings, selection needs %d",
			ErrShape, len(buf.Strings), c.extent)
	}
	if uint64(c.v.Len()) != c.extent {
		c.v.Set(reflect.MakeSlice(c.v.Type(), int(c.extent), int(c.extent)))
	}
	for i, b := range buf.Strings {
		c.v.Index(i).SetString(string(b))
	}
	return nil
}
