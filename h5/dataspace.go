package h5

import "github.com/tpongo-afk/HighFive/internal/store"

// Unlimited marks an axis whose extent may grow without bound. It is
// only meaningful inside the maximum-dimensions slice passed to
// WithMaxDims; a current extent can never be Unlimited.
const Unlimited = store.Unlimited

// DataSpace describes the extent of a dataset: the length of each
// axis, in row-major order. A DataSpace with no dimensions is scalar
// and holds exactly one element.
type DataSpace struct {
	dims []uint64
}

// NewDataSpace builds a dataspace with the given extents. Calling it
// with no arguments yields a scalar dataspace.
func NewDataSpace(dims ...uint64) DataSpace {
	if len(dims) == 0 {
		return DataSpace{}
	}
	d := make([]uint64, len(dims))
	copy(d, dims)
	return DataSpace{dims: d}
}

// ScalarSpace returns the dataspace of a single element with no axes.
func ScalarSpace() DataSpace {
	return DataSpace{}
}

// Dims returns a copy of the extents, or nil for a scalar dataspace.
func (s DataSpace) Dims() []uint64 {
	if s.dims == nil {
		return nil
	}
	d := make([]uint64, len(s.dims))
	copy(d, s.dims)
	return d
}

// Rank returns the number of axes. Scalar dataspaces have rank 0.
func (s DataSpace) Rank() int { return len(s.dims) }

// IsScalar reports whether the dataspace holds a single element with
// no axes.
func (s DataSpace) IsScalar() bool { return len(s.dims) == 0 }

// NumElements returns the total element count, the product of all
// extents. A scalar dataspace holds one element.
func (s DataSpace) NumElements() uint64 {
	n := uint64(1)
	for _, d := range s.dims {
		n *= d
	}
	return n
}
