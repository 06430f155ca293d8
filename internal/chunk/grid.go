package chunk

import "fmt"

// Grid describes how a dataset's element space divides into chunks.
type Grid struct {
	dims      []uint64 // dataset extents
	chunkDims []uint64 // chunk extents, all >= 1
	shape     []uint64 // chunks per axis
}

// NewGrid builds the chunk grid for a dataset.
func NewGrid(dims, chunkDims []uint64) (*Grid, error) {
	if len(dims) != len(chunkDims) {
		return nil, fmt.Errorf("chunk rank %d does not match dataset rank %d", len(chunkDims), len(dims))
	}
	shape := make([]uint64, len(dims))
	for i, c := range chunkDims {
		if c == 0 {
			return nil, fmt.Errorf("chunk extent is zero on axis %d", i)
		}
		// ceil(dims/chunk); zero-extent axes have no chunks
		shape[i] = (dims[i] + c - 1) / c
	}
	return &Grid{
		dims:      append([]uint64(nil), dims...),
		chunkDims: append([]uint64(nil), chunkDims...),
		shape:     shape,
	}, nil
}

// Rank returns the number of axes.
func (g *Grid) Rank() int {
	return len(g.dims)
}

// Dims returns the dataset extents.
func (g *Grid) Dims() []uint64 {
	return g.dims
}

// ChunkDims returns the chunk extents.
func (g *Grid) ChunkDims() []uint64 {
	return g.chunkDims
}

// Shape returns the per-axis chunk counts.
func (g *Grid) Shape() []uint64 {
	return g.shape
}

// Count returns the total number of chunks in the grid.
func (g *Grid) Count() uint64 {
	n := uint64(1)
	for _, s := range g.shape {
		n *= s
	}
	return n
}

// ChunkElems returns the number of elements in one full chunk.
func (g *Grid) ChunkElems() uint64 {
	n := uint64(1)
	for _, c := range g.chunkDims {
		n *= c
	}
	return n
}

// Index returns the row-major linear index of the chunk at coords.
func (g *Grid) Index(coords []uint64) uint64 {
	idx := uint64(0)
	for i, c := range coords {
		idx = idx*g.shape[i] + c
	}
	return idx
}

// Coords returns the per-axis chunk coordinates for a linear index.
func (g *Grid) Coords(index uint64) []uint64 {
	coords := make([]uint64, len(g.shape))
	for i := len(g.shape) - 1; i >= 0; i-- {
		coords[i] = index % g.shape[i]
		index /= g.shape[i]
	}
	return coords
}

// Origin returns the element offset of the chunk at coords.
func (g *Grid) Origin(coords []uint64) []uint64 {
	origin := make([]uint64, len(coords))
	for i, c := range coords {
		origin[i] = c * g.chunkDims[i]
	}
	return origin
}

// OverlapFunc receives one chunk intersecting a selection. coords are the
// chunk's grid coordinates; chunkOff is the intersection origin relative to
// the chunk origin; selOff is the same origin relative to the selection
// origin; box is the intersection extents. Returning an error stops the
// iteration.
type OverlapFunc func(coords, chunkOff, selOff, box []uint64) error

// Overlap calls fn for every chunk intersecting the selection described by
// offset and count. The selection must already be validated against the
// dataset extents. A selection with a zero-extent axis touches no chunks.
func (g *Grid) Overlap(offset, count []uint64, fn OverlapFunc) error {
	rank := len(g.dims)
	first := make([]uint64, rank)
	last := make([]uint64, rank)
	for i := 0; i < rank; i++ {
		if count[i] == 0 {
			return nil
		}
		first[i] = offset[i] / g.chunkDims[i]
		last[i] = (offset[i] + count[i] - 1) / g.chunkDims[i]
	}

	coords := append([]uint64(nil), first...)
	chunkOff := make([]uint64, rank)
	selOff := make([]uint64, rank)
	box := make([]uint64, rank)
	for {
		for i := 0; i < rank; i++ {
			origin := coords[i] * g.chunkDims[i]
			start := max64(offset[i], origin)
			end := min64(offset[i]+count[i], origin+g.chunkDims[i])
			chunkOff[i] = start - origin
			selOff[i] = start - offset[i]
			box[i] = end - start
		}
		if err := fn(coords, chunkOff, selOff, box); err != nil {
			return err
		}

		// Odometer step, last axis fastest.
		i := rank - 1
		for ; i >= 0; i-- {
			coords[i]++
			if coords[i] <= last[i] {
				break
			}
			coords[i] = first[i]
		}
		if i < 0 {
			return nil
		}
	}
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
