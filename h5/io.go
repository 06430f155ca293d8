package h5

import (
	"fmt"
	"reflect"

	"github.com/tpongo-afk/HighFive/internal/convert"
	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// readInto reads the region selected by sel, or the whole dataset
// when sel is nil, into dest. All container validation happens
// before the engine is touched, so a shape or type mismatch never
// leaves a partial read behind.
func (d *Dataset) readInto(sel *store.Hyperslab, dest interface{}) (err error) {
	if err := d.file.usable(); err != nil {
		return err
	}
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("dest must be a non-nil pointer, got %T", dest)
	}
	v = v.Elem()

	if sel == nil {
		if err := d.refresh(); err != nil {
			return err
		}
	}
	_, count, err := store.ResolveSelection(sel, d.info.Dims)
	if err != nil {
		return err
	}

	info, err := convert.For(v.Type())
	if err != nil {
		return err
	}
	conv, err := convert.New(info, v, count)
	if err != nil {
		return err
	}
	if err := d.checkType(info.Elem); err != nil {
		return err
	}

	buf, err := conv.PrepareRead()
	if err != nil {
		return err
	}
	if err := d.file.engine.Transfer(store.OpRead, d.path, d.info.Type, sel, buf); err != nil {
		return &TransferError{Op: "read", Err: err}
	}
	if buf.Lease != 0 {
		// String reads borrow engine memory; give it back once the
		// converter has copied the data out.
		defer func() {
			if rerr := d.file.engine.Reclaim(buf.Lease); rerr != nil && err == nil {
				err = rerr
			}
		}()
	}
	return conv.Finish(buf)
}

// writeFrom writes data over the region selected by sel, or the
// whole dataset when sel is nil.
func (d *Dataset) writeFrom(sel *store.Hyperslab, data interface{}) error {
	if err := d.file.writable(); err != nil {
		return err
	}
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("%w: nil data", ErrUnsupported)
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return fmt.Errorf("%w: nil data", ErrUnsupported)
	}

	if sel == nil {
		if err := d.refresh(); err != nil {
			return err
		}
	}
	_, count, err := store.ResolveSelection(sel, d.info.Dims)
	if err != nil {
		return err
	}

	info, err := convert.For(v.Type())
	if err != nil {
		return err
	}
	conv, err := convert.New(info, v, count)
	if err != nil {
		return err
	}
	if err := d.checkType(info.Elem); err != nil {
		return err
	}

	// The converter may hand the engine views into the container's
	// own storage; conv stays live until the transfer returns.
	buf, err := conv.PrepareWrite()
	if err != nil {
		return err
	}
	if err := d.file.engine.Transfer(store.OpWrite, d.path, d.info.Type, sel, buf); err != nil {
		return &TransferError{Op: "write", Err: err}
	}
	return nil
}

// checkType requires the container's element type to match the
// dataset's stored type exactly. There are no implicit numeric
// conversions.
func (d *Dataset) checkType(elem reflect.Type) error {
	dt, err := dtype.Of(elem)
	if err != nil {
		return err
	}
	if !dt.Equal(d.info.Type) {
		return fmt.Errorf("%w: container elements are %s, dataset stores %s",
			ErrTypeMismatch, dt, d.info.Type)
	}
	return nil
}
