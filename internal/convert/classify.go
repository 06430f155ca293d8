package convert

import (
	"fmt"
	"reflect"
)

// Class names one conversion strategy. The set is closed: every
// supported container shape maps to exactly one class, and adding a
// shape means adding a class plus one rule in Classify.
type Class uint8

const (
	// Scalar is a single numeric value, rank 0.
	Scalar Class = iota
	// FlatPlain is a slice of numeric values whose backing storage is
	// already the transfer layout, rank 1.
	FlatPlain
	// FlatString is a slice of variable-length strings, rank 1.
	FlatString
	// Nested is a slice of slices (to any depth) with a numeric leaf;
	// rank equals the nesting depth.
	Nested
	// FixedArray is a fixed-size array nesting ([2][3]float64 and the
	// like) with a numeric leaf, contiguous in memory; rank equals the
	// nesting depth.
	FixedArray
)

func (c Class) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case FlatPlain:
		return "flat"
	case FlatString:
		return "string"
	case Nested:
		return "nested"
	case FixedArray:
		return "array"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Info is the result of classifying a container type.
type Info struct {
	Class Class
	Rank  int          // structural rank of the container itself
	Elem  reflect.Type // leaf scalar type
}

// Classify inspects a container type and selects the strategy that
// moves it through a flat transfer buffer.
func Classify(t reflect.Type) (Info, error) {
	switch t.Kind() {
	case reflect.Slice:
		elem := t.Elem()
		switch elem.Kind() {
		case reflect.String:
			return Info{Class: FlatString, Rank: 1, Elem: elem}, nil
		case reflect.Slice:
			return classifyNested(t)
		case reflect.Array:
			return Info{}, fmt.Errorf("%w: %s mixes slices and arrays", ErrUnsupported, t)
		default:
			if !isScalar(elem) {
				return Info{}, fmt.Errorf("%w: %s has element type %s", ErrUnsupported, t, elem)
			}
			return Info{Class: FlatPlain, Rank: 1, Elem: elem}, nil
		}
	case reflect.Array:
		return classifyArray(t)
	default:
		if isScalar(t) {
			return Info{Class: Scalar, Rank: 0, Elem: t}, nil
		}
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, t)
	}
}

func classifyNested(t reflect.Type) (Info, error) {
	rank := 0
	leaf := t
	for leaf.Kind() == reflect.Slice {
		rank++
		leaf = leaf.Elem()
	}
	switch {
	case leaf.Kind() == reflect.String:
		return Info{}, fmt.Errorf("%w: %s nests strings below the first axis", ErrUnsupported, t)
	case leaf.Kind() == reflect.Array:
		return Info{}, fmt.Errorf("%w: %s mixes slices and arrays", ErrUnsupported, t)
	case !isScalar(leaf):
		return Info{}, fmt.Errorf("%w: %s has element type %s", ErrUnsupported, t, leaf)
	}
	return Info{Class: Nested, Rank: rank, Elem: leaf}, nil
}

func classifyArray(t reflect.Type) (Info, error) {
	rank := 0
	leaf := t
	for leaf.Kind() == reflect.Array {
		rank++
		leaf = leaf.Elem()
	}
	switch {
	case leaf.Kind() == reflect.Slice:
		return Info{}, fmt.Errorf("%w: %s mixes arrays and slices", ErrUnsupported, t)
	case leaf.Kind() == reflect.String:
		return Info{}, fmt.Errorf("%w: %s has string elements, use a []string", ErrUnsupported, t)
	case !isScalar(leaf):
		return Info{}, fmt.Errorf("%w: %s has element type %s", ErrUnsupported, t, leaf)
	}
	return Info{Class: FixedArray, Rank: rank, Elem: leaf}, nil
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
