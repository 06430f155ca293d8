package dtype

import (
	"fmt"
	"reflect"
)

// Class identifies the broad kind of an element type.
type Class uint8

const (
	ClassFixedPoint Class = iota // signed or unsigned integers
	ClassFloatPoint              // IEEE 754 floats
	ClassString                  // variable-length strings
)

func (c Class) String() string {
	switch c {
	case ClassFixedPoint:
		return "fixed-point"
	case ClassFloatPoint:
		return "float-point"
	case ClassString:
		return "string"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Descriptor describes one scalar element type as the storage engine sees
// it. Size is the byte width of one element; it is zero for variable-length
// classes.
type Descriptor struct {
	Class  Class
	Size   uint32
	Signed bool
}

// Of returns the descriptor for a Go scalar element type.
func Of(t reflect.Type) (Descriptor, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Descriptor{Class: ClassFixedPoint, Size: uint32(t.Size()), Signed: true}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Descriptor{Class: ClassFixedPoint, Size: uint32(t.Size())}, nil
	case reflect.Float32, reflect.Float64:
		return Descriptor{Class: ClassFloatPoint, Size: uint32(t.Size())}, nil
	case reflect.String:
		return Descriptor{Class: ClassString}, nil
	default:
		return Descriptor{}, fmt.Errorf("unsupported element type %s", t)
	}
}

// GoType returns the canonical Go type for the descriptor.
func (d Descriptor) GoType() (reflect.Type, error) {
	switch d.Class {
	case ClassFixedPoint:
		switch d.Size {
		case 1:
			if d.Signed {
				return reflect.TypeOf(int8(0)), nil
			}
			return reflect.TypeOf(uint8(0)), nil
		case 2:
			if d.Signed {
				return reflect.TypeOf(int16(0)), nil
			}
			return reflect.TypeOf(uint16(0)), nil
		case 4:
			if d.Signed {
				return reflect.TypeOf(int32(0)), nil
			}
			return reflect.TypeOf(uint32(0)), nil
		case 8:
			if d.Signed {
				return reflect.TypeOf(int64(0)), nil
			}
			return reflect.TypeOf(uint64(0)), nil
		default:
			return nil, fmt.Errorf("unsupported fixed-point size: %d", d.Size)
		}
	case ClassFloatPoint:
		switch d.Size {
		case 4:
			return reflect.TypeOf(float32(0)), nil
		case 8:
			return reflect.TypeOf(float64(0)), nil
		default:
			return nil, fmt.Errorf("unsupported float size: %d", d.Size)
		}
	case ClassString:
		return reflect.TypeOf(""), nil
	default:
		return nil, fmt.Errorf("unsupported class: %s", d.Class)
	}
}

// Equal reports whether two descriptors denote the same element layout.
func (d Descriptor) Equal(o Descriptor) bool {
	if d.Class != o.Class {
		return false
	}
	if d.Class == ClassString {
		return true
	}
	return d.Size == o.Size && d.Signed == o.Signed
}

// IsVariable reports whether elements have no fixed byte width.
func (d Descriptor) IsVariable() bool {
	return d.Class == ClassString
}

// String renders the descriptor as a Go-flavored type name.
func (d Descriptor) String() string {
	switch d.Class {
	case ClassFixedPoint:
		if d.Signed {
			return fmt.Sprintf("int%d", d.Size*8)
		}
		return fmt.Sprintf("uint%d", d.Size*8)
	case ClassFloatPoint:
		return fmt.Sprintf("float%d", d.Size*8)
	case ClassString:
		return "string"
	default:
		return d.Class.String()
	}
}

// IsNumeric reports whether the descriptor is a numeric type.
func (d Descriptor) IsNumeric() bool {
	return d.Class == ClassFixedPoint || d.Class == ClassFloatPoint
}
