package h5

import "math"

// Chunk sizing targets. The advisor aims for chunks between chunkMin
// and chunkMax bytes, scaling the target with the dataset's total
// size so small datasets get small chunks and large ones approach the
// ceiling.
const (
	chunkBase = 16 * 1024
	chunkMin  = 8 * 1024
	chunkMax  = 1024 * 1024
)

// GuessChunking proposes a chunk shape for a dataset with the given
// extents. Axes marked Unlimited in maxDims are seeded with 1024
// since their final extent is unknown; zero extents are seeded with
// 1. The result always has the same rank as dims with every extent
// at least 1, and its total byte size stays at or below chunkMax.
//
// WithAutoChunks applies this advisor at creation time, and resizable
// or filtered datasets that carry no explicit chunk shape fall back
// to it as well.
func GuessChunking(dims, maxDims []uint64, elementSize uint32) []uint64 {
	if len(dims) == 0 {
		return nil
	}

	work := make([]uint64, len(dims))
	for i, d := range dims {
		switch {
		case i < len(maxDims) && maxDims[i] == Unlimited:
			work[i] = 1024
		case d == 0:
			work[i] = 1
		default:
			work[i] = d
		}
	}

	// Scale the target chunk size with the dataset's footprint:
	// double it for every tenfold growth past one MiB, then clamp.
	dsetBytes := float64(product(work) * uint64(elementSize))
	target := float64(chunkBase) * math.Exp2(math.Log10(dsetBytes/(1024.0*1024.0)))
	if target > chunkMax {
		target = chunkMax
	}
	if target < chunkMin {
		target = chunkMin
	}

	// Halve axes round-robin until the chunk drops near the target.
	for idx := 0; ; idx++ {
		size := product(work) * uint64(elementSize)
		if (float64(size) < target || math.Abs(float64(size)-target)/target < 0.5) && size < chunkMax {
			break
		}
		if product(work) == 1 {
			break
		}
		axis := idx % len(work)
		work[axis] = (work[axis] + 1) / 2
	}
	return work
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}
