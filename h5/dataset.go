package h5

import (
	"fmt"
	"reflect"

	"github.com/tpongo-afk/HighFive/internal/store"
)

// Dataset is a handle on one dataset. It caches the dataset's shape
// and element type; Resize and Select refresh the cache from the
// engine before acting on it.
type Dataset struct {
	file *File
	path string
	info store.DatasetInfo
}

func newDatasetHandle(f *File, path string) (*Dataset, error) {
	d := &Dataset{file: f, path: path}
	if err := d.refresh(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dataset) refresh() error {
	info, err := d.file.engine.Dataset(d.path)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", d.path, err)
	}
	d.info = *info
	return nil
}

// Name returns the dataset's own name, the final path component.
func (d *Dataset) Name() string { return store.BaseName(d.path) }

// Path returns the dataset's absolute path.
func (d *Dataset) Path() string { return d.path }

// Shape returns the dataset's current extents, nil for a scalar.
func (d *Dataset) Shape() []uint64 {
	if d.info.Dims == nil {
		return nil
	}
	dims := make([]uint64, len(d.info.Dims))
	copy(dims, d.info.Dims)
	return dims
}

// Dims is an alias for Shape.
func (d *Dataset) Dims() []uint64 { return d.Shape() }

// MaxShape returns the maximum extents the dataset may be resized
// to, with Unlimited for unbounded axes. Datasets created without
// WithMaxDims return their current shape.
func (d *Dataset) MaxShape() []uint64 {
	if d.info.MaxDims == nil {
		return d.Shape()
	}
	dims := make([]uint64, len(d.info.MaxDims))
	copy(dims, d.info.MaxDims)
	return dims
}

// ChunkShape returns the chunk extents the dataset was created with,
// or nil for contiguous storage.
func (d *Dataset) ChunkShape() ([]uint64, error) {
	if err := d.file.usable(); err != nil {
		return nil, err
	}
	params, err := d.file.engine.Params(d.path)
	if err != nil {
		return nil, fmt.Errorf("loading dataset %s: %w", d.path, err)
	}
	if len(params.ChunkDims) == 0 {
		return nil, nil
	}
	return append([]uint64(nil), params.ChunkDims...), nil
}

// Rank returns the number of axes. Scalar datasets have rank 0.
func (d *Dataset) Rank() int { return len(d.info.Dims) }

// IsScalar reports whether the dataset holds a single element with
// no axes.
func (d *Dataset) IsScalar() bool { return len(d.info.Dims) == 0 }

// NumElements returns the total element count, the product of all
// extents.
func (d *Dataset) NumElements() uint64 { return product(d.info.Dims) }

// Space returns the dataset's dataspace.
func (d *Dataset) Space() DataSpace { return DataSpace{dims: d.Shape()} }

// TypeName names the element type, such as "float64" or "string".
func (d *Dataset) TypeName() string { return d.info.Type.String() }

// ElementSize returns the stored size of one element in bytes, 0 for
// variable-length strings.
func (d *Dataset) ElementSize() uint32 {
	if d.info.Type.IsVariable() {
		return 0
	}
	return d.info.Type.Size
}

// GoType returns the Go type the dataset's elements decode to.
func (d *Dataset) GoType() (reflect.Type, error) { return d.info.Type.GoType() }

// Read reads the whole dataset into dest, which must be a non-nil
// pointer to a container whose rank matches the dataset: a scalar
// for rank 0, a slice for rank 1, nested slices or a fixed
// multi-dimensional array for higher ranks. Slices are resized to
// fit; fixed arrays must match the shape exactly.
func (d *Dataset) Read(dest interface{}) error {
	return d.readInto(nil, dest)
}

// Write writes the whole dataset from data. The container's shape
// must match the dataset's shape exactly.
func (d *Dataset) Write(data interface{}) error {
	return d.writeFrom(nil, data)
}

// Resize changes the dataset's extents. The dataset must have been
// created with WithMaxDims, and every new extent must stay within
// the maximum. Shrunk regions are discarded; regions exposed by
// growth read back as zeros.
func (d *Dataset) Resize(dims ...uint64) error {
	if err := d.file.writable(); err != nil {
		return err
	}
	newDims := make([]uint64, len(dims))
	copy(newDims, dims)
	if err := d.file.engine.Resize(d.path, newDims); err != nil {
		return fmt.Errorf("resizing dataset %s: %w", d.path, err)
	}
	return d.refresh()
}

// Select restricts reads and writes to a rectangular region: offset
// is the starting coordinate and count the extent per axis, both of
// the dataset's rank. The selection must lie entirely within the
// dataset's current shape.
func (d *Dataset) Select(offset, count []uint64) (*Selection, error) {
	if err := d.file.usable(); err != nil {
		return nil, err
	}
	if err := d.refresh(); err != nil {
		return nil, err
	}
	slab := store.Hyperslab{
		Offset: make([]uint64, len(offset)),
		Count:  make([]uint64, len(count)),
	}
	copy(slab.Offset, offset)
	copy(slab.Count, count)
	if _, _, err := store.ResolveSelection(&slab, d.info.Dims); err != nil {
		return nil, err
	}
	return &Selection{ds: d, slab: slab}, nil
}

// ReadFloat64 reads a rank-1 float64 dataset.
func (d *Dataset) ReadFloat64() ([]float64, error) {
	var out []float64
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFloat32 reads a rank-1 float32 dataset.
func (d *Dataset) ReadFloat32() ([]float32, error) {
	var out []float32
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt64 reads a rank-1 int64 dataset.
func (d *Dataset) ReadInt64() ([]int64, error) {
	var out []int64
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt32 reads a rank-1 int32 dataset.
func (d *Dataset) ReadInt32() ([]int32, error) {
	var out []int32
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt16 reads a rank-1 int16 dataset.
func (d *Dataset) ReadInt16() ([]int16, error) {
	var out []int16
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadInt8 reads a rank-1 int8 dataset.
func (d *Dataset) ReadInt8() ([]int8, error) {
	var out []int8
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint64 reads a rank-1 uint64 dataset.
func (d *Dataset) ReadUint64() ([]uint64, error) {
	var out []uint64
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint32 reads a rank-1 uint32 dataset.
func (d *Dataset) ReadUint32() ([]uint32, error) {
	var out []uint32
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint16 reads a rank-1 uint16 dataset.
func (d *Dataset) ReadUint16() ([]uint16, error) {
	var out []uint16
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadUint8 reads a rank-1 uint8 dataset.
func (d *Dataset) ReadUint8() ([]uint8, error) {
	var out []uint8
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadString reads a rank-1 string dataset.
func (d *Dataset) ReadString() ([]string, error) {
	var out []string
	if err := d.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}
