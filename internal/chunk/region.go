package chunk

// LinearOffset returns the row-major element offset of coords within a
// buffer of the given extents.
func LinearOffset(coords, dims []uint64) uint64 {
	off := uint64(0)
	for i := range dims {
		off = off*dims[i] + coords[i]
	}
	return off
}

// NumElements returns the product of the extents. An empty extent list
// describes a scalar space holding one element.
func NumElements(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// CopyRegion copies a rectangular box of elements between two row-major
// byte buffers. The box extents are taken from box; srcOff and dstOff
// position the box within the source and destination spaces. The caller
// guarantees the box fits inside both spaces.
func CopyRegion(dst []byte, dstDims, dstOff []uint64, src []byte, srcDims, srcOff, box []uint64, elemSize int) {
	if len(box) == 0 {
		// Scalar spaces carry exactly one element.
		copy(dst[:elemSize], src[:elemSize])
		return
	}
	for _, b := range box {
		if b == 0 {
			return
		}
	}
	srcPos := append([]uint64(nil), srcOff...)
	dstPos := append([]uint64(nil), dstOff...)
	copyRegion(dst, dstDims, dstPos, src, srcDims, srcPos, box, elemSize, 0)
}

// CopyElems is CopyRegion for element slices instead of raw bytes.
// Elements are assigned, not deep-copied.
func CopyElems[E any](dst []E, dstDims, dstOff []uint64, src []E, srcDims, srcOff, box []uint64) {
	if len(box) == 0 {
		dst[0] = src[0]
		return
	}
	for _, b := range box {
		if b == 0 {
			return
		}
	}
	srcPos := append([]uint64(nil), srcOff...)
	dstPos := append([]uint64(nil), dstOff...)
	copyElems(dst, dstDims, dstPos, src, srcDims, srcPos, box, 0)
}

func copyElems[E any](dst []E, dstDims, dstPos []uint64, src []E, srcDims, srcPos, box []uint64, axis int) {
	if axis == len(box)-1 {
		n := box[axis]
		so := LinearOffset(srcPos, srcDims)
		do := LinearOffset(dstPos, dstDims)
		copy(dst[do:do+n], src[so:so+n])
		return
	}
	srcBase := srcPos[axis]
	dstBase := dstPos[axis]
	for i := uint64(0); i < box[axis]; i++ {
		srcPos[axis] = srcBase + i
		dstPos[axis] = dstBase + i
		copyElems(dst, dstDims, dstPos, src, srcDims, srcPos, box, axis+1)
	}
	srcPos[axis] = srcBase
	dstPos[axis] = dstBase
}

func copyRegion(dst []byte, dstDims, dstPos []uint64, src []byte, srcDims, srcPos, box []uint64, elemSize int, axis int) {
	if axis == len(box)-1 {
		n := int(box[axis]) * elemSize
		so := int(LinearOffset(srcPos, srcDims)) * elemSize
		do := int(LinearOffset(dstPos, dstDims)) * elemSize
		copy(dst[do:do+n], src[so:so+n])
		return
	}
	srcBase := srcPos[axis]
	dstBase := dstPos[axis]
	for i := uint64(0); i < box[axis]; i++ {
		srcPos[axis] = srcBase + i
		dstPos[axis] = dstBase + i
		copyRegion(dst, dstDims, dstPos, src, srcDims, srcPos, box, elemSize, axis+1)
	}
	srcPos[axis] = srcBase
	dstPos[axis] = dstBase
}
