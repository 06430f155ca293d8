// Package dtype maps Go scalar element types to the descriptors the storage
// engine understands, and provides borrowed byte views over container
// storage for zero-copy transfers.
//
// # Type Mapping
//
// Supported element types and their descriptors:
//
//	Go type            | Class      | Size
//	-------------------|------------|--------------------
//	int8 ... int64     | FixedPoint | 1, 2, 4, 8 (signed)
//	int                | FixedPoint | platform word (signed)
//	uint8 ... uint64   | FixedPoint | 1, 2, 4, 8
//	uint               | FixedPoint | platform word
//	float32, float64   | FloatPoint | 4, 8
//	string             | String     | 0 (variable-length)
//
// Two descriptors compare equal when class, size, and signedness agree, so
// int and int64 are interchangeable on 64-bit platforms.
//
// # Byte Views
//
// [SliceBytes], [Bytes], and [StringBytes] expose the raw storage behind Go
// values without copying. The views are borrows: they are only valid while
// the originating value is alive and unmodified, and must not be retained
// past the transfer they were built for. Element bytes cross the engine
// boundary in native memory layout, which this package assumes to be
// little-endian.
package dtype
