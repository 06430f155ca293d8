package h5

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Attribute is a small named value attached to a group or dataset.
// Values are numeric or string scalars, or slices of either, and are
// read and written whole.
type Attribute struct {
	name string
	raw  []byte
}

// Name returns the attribute's name.
func (a *Attribute) Name() string { return a.name }

// Read decodes the attribute's value into dest, which must be a
// non-nil pointer.
func (a *Attribute) Read(dest interface{}) error {
	if err := msgpack.Unmarshal(a.raw, dest); err != nil {
		return fmt.Errorf("decoding attribute %s: %w", a.name, err)
	}
	return nil
}

// Value decodes the attribute into a generic Go value: integers come
// back as int64 or uint64, floating point as float64, strings as
// string, and slices as []interface{} of those.
func (a *Attribute) Value() (interface{}, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(a.raw))
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("decoding attribute %s: %w", a.name, err)
	}
	return v, nil
}

// ReadScalarString reads a scalar string attribute.
func (a *Attribute) ReadScalarString() (string, error) {
	var v string
	err := a.Read(&v)
	return v, err
}

// ReadScalarInt64 reads a scalar integer attribute.
func (a *Attribute) ReadScalarInt64() (int64, error) {
	var v int64
	err := a.Read(&v)
	return v, err
}

// ReadScalarFloat64 reads a scalar floating-point attribute.
func (a *Attribute) ReadScalarFloat64() (float64, error) {
	var v float64
	err := a.Read(&v)
	return v, err
}

func validAttrName(name string) error {
	if name == "" || strings.ContainsAny(name, "/@\x00") {
		return fmt.Errorf("%w: invalid attribute name %q", ErrInvalidPath, name)
	}
	return nil
}

func validAttrValue(v reflect.Value) bool {
	t := v.Type()
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return true
	}
	return false
}

func (f *File) setAttr(objPath, name string, value interface{}) error {
	if err := f.writable(); err != nil {
		return err
	}
	if err := validAttrName(name); err != nil {
		return err
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return fmt.Errorf("%w: nil attribute value", ErrUnsupported)
		}
		v = v.Elem()
	}
	if !v.IsValid() || !validAttrValue(v) {
		return fmt.Errorf("%w: attribute values must be numeric or string scalars or slices, got %T",
			ErrUnsupported, value)
	}
	raw, err := msgpack.Marshal(v.Interface())
	if err != nil {
		return fmt.Errorf("encoding attribute %s: %w", name, err)
	}
	if err := f.engine.SetAttr(objPath, name, raw); err != nil {
		return fmt.Errorf("setting attribute %s on %s: %w", name, objPath, err)
	}
	return nil
}

func (f *File) attr(objPath, name string) (*Attribute, error) {
	if err := f.usable(); err != nil {
		return nil, err
	}
	raw, err := f.engine.Attr(objPath, name)
	if err != nil {
		return nil, fmt.Errorf("reading attribute %s on %s: %w", name, objPath, err)
	}
	return &Attribute{name: name, raw: raw}, nil
}

func (f *File) attrNames(objPath string) ([]string, error) {
	if err := f.usable(); err != nil {
		return nil, err
	}
	names, err := f.engine.Attrs(objPath)
	if err != nil {
		return nil, fmt.Errorf("listing attributes of %s: %w", objPath, err)
	}
	return names, nil
}

// SetAttr sets an attribute on the group.
func (g *Group) SetAttr(name string, value interface{}) error {
	return g.file.setAttr(g.path, name, value)
}

// Attr reads an attribute of the group.
func (g *Group) Attr(name string) (*Attribute, error) {
	return g.file.attr(g.path, name)
}

// Attrs returns the group's attribute names, sorted.
func (g *Group) Attrs() ([]string, error) {
	return g.file.attrNames(g.path)
}

// HasAttr reports whether the group has an attribute with the
// given name.
func (g *Group) HasAttr(name string) bool {
	_, err := g.file.attr(g.path, name)
	return err == nil
}

// ReadAttr reads an attribute of the group into dest.
func (g *Group) ReadAttr(name string, dest interface{}) error {
	a, err := g.Attr(name)
	if err != nil {
		return err
	}
	return a.Read(dest)
}

// SetAttr sets an attribute on the dataset.
func (d *Dataset) SetAttr(name string, value interface{}) error {
	return d.file.setAttr(d.path, name, value)
}

// Attr reads an attribute of the dataset.
func (d *Dataset) Attr(name string) (*Attribute, error) {
	return d.file.attr(d.path, name)
}

// Attrs returns the dataset's attribute names, sorted.
func (d *Dataset) Attrs() ([]string, error) {
	return d.file.attrNames(d.path)
}

// HasAttr reports whether the dataset has an attribute with the
// given name.
func (d *Dataset) HasAttr(name string) bool {
	_, err := d.file.attr(d.path, name)
	return err == nil
}

// ReadAttr reads an attribute of the dataset into dest.
func (d *Dataset) ReadAttr(name string, dest interface{}) error {
	a, err := d.Attr(name)
	if err != nil {
		return err
	}
	return a.Read(dest)
}
