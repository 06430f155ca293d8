package h5

import "github.com/tpongo-afk/HighFive/internal/store"

// Selection is a rectangular region of a dataset. Reads and writes
// through it touch only the selected elements; containers passed to
// them must match the selection's extents, not the dataset's.
type Selection struct {
	ds   *Dataset
	slab store.Hyperslab
}

// Dims returns the selection's extents.
func (s *Selection) Dims() []uint64 {
	dims := make([]uint64, len(s.slab.Count))
	copy(dims, s.slab.Count)
	return dims
}

// NumElements returns the number of selected elements.
func (s *Selection) NumElements() uint64 { return product(s.slab.Count) }

// Read reads the selected region into dest, which must be a non-nil
// pointer to a container of the selection's rank and shape. Slices
// are resized to fit.
func (s *Selection) Read(dest interface{}) error {
	return s.ds.readInto(&s.slab, dest)
}

// Write writes data over the selected region. The container's shape
// must match the selection's extents exactly.
func (s *Selection) Write(data interface{}) error {
	return s.ds.writeFrom(&s.slab, data)
}
