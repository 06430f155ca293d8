// Package chunk provides the geometry for chunked dataset storage: the
// mapping between a dataset's element space and its grid of fixed-size
// chunks, and row-major copies of rectangular regions between flat buffers.
//
// Chunks are stored full-size; edge chunks extend past the dataset extent
// and the surplus is never addressed. All coordinates are element counts,
// not bytes, except where a parameter is explicitly an element byte size.
package chunk
