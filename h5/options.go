package h5

import (
	"log/slog"

	"github.com/tpongo-afk/HighFive/internal/filter"
)

// FileOption configures how a file is opened or created.
type FileOption func(*fileOptions)

type fileOptions struct {
	logger   *slog.Logger
	readOnly bool
	noSync   bool
	mmapSize int
}

// WithLogger routes the file's debug output to the given logger.
// Without it, log output is discarded.
func WithLogger(l *slog.Logger) FileOption {
	return func(o *fileOptions) { o.logger = l }
}

// WithReadOnly opens the file without write access. Creation and
// mutation calls on a read-only file fail with ErrReadOnly.
func WithReadOnly() FileOption {
	return func(o *fileOptions) { o.readOnly = true }
}

// WithNoSync skips fsync on commit. Writes run faster but the file
// can be corrupted by a crash or power loss.
func WithNoSync() FileOption {
	return func(o *fileOptions) { o.noSync = true }
}

// WithInitialMmapSize presizes the file's memory map, in bytes, to
// avoid remapping while the file grows under heavy write load.
func WithInitialMmapSize(bytes int) FileOption {
	return func(o *fileOptions) { o.mmapSize = bytes }
}

// AllocTime selects when a chunked dataset's storage is allocated.
type AllocTime uint8

const (
	// AllocIncremental allocates chunk storage lazily, as each chunk
	// is first written. Untouched chunks occupy no space and read
	// back as zeros. This is the default.
	AllocIncremental AllocTime = iota

	// AllocEarly allocates every chunk when the dataset is created.
	AllocEarly
)

type attrDef struct {
	name  string
	value interface{}
}

// DatasetOption configures dataset creation.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	chunks        []uint64
	autoChunks    bool
	maxDims       []uint64
	compressor    *filter.Info
	compLevel     int
	compressors   int
	szip          bool
	shuffle       bool
	fletcher32    bool
	allocTime     AllocTime
	cacheBytes    int
	intermediates bool
	attributes    []attrDef
}

// WithChunks stores the dataset in chunks of the given shape. The
// shape must have the same rank as the dataset and every extent must
// be at least 1.
func WithChunks(dims ...uint64) DatasetOption {
	d := make([]uint64, len(dims))
	copy(d, dims)
	return func(o *datasetOptions) { o.chunks = d }
}

// WithAutoChunks stores the dataset in chunks, letting GuessChunking
// pick the shape from the dataset's extents and element size.
func WithAutoChunks() DatasetOption {
	return func(o *datasetOptions) { o.autoChunks = true }
}

// WithMaxDims makes the dataset resizable up to the given maximum
// extents. Use Unlimited for an axis that may grow without bound. The
// slice must have the same rank as the dataset and every maximum must
// cover the initial extent. Resizable datasets are always chunked.
func WithMaxDims(dims ...uint64) DatasetOption {
	d := make([]uint64, len(dims))
	copy(d, dims)
	return func(o *datasetOptions) { o.maxDims = d }
}

// WithDeflate compresses chunks with DEFLATE at the given level, 0
// (no compression) through 9 (best). Compression implies chunking.
func WithDeflate(level int) DatasetOption {
	return func(o *datasetOptions) {
		o.compressor = &filter.Info{ID: filter.IDDeflate}
		o.compLevel = level
		o.compressors++
	}
}

// WithZstd compresses chunks with Zstandard at the given level, 1
// (fastest) through 22 (best). Compression implies chunking.
func WithZstd(level int) DatasetOption {
	return func(o *datasetOptions) {
		o.compressor = &filter.Info{ID: filter.IDZstd}
		o.compLevel = level
		o.compressors++
	}
}

// WithLZ4 compresses chunks with LZ4. Compression implies chunking.
func WithLZ4() DatasetOption {
	return func(o *datasetOptions) {
		o.compressor = &filter.Info{ID: filter.IDLZ4}
		o.compressors++
	}
}

// WithSzip requests SZIP compression, which this library does not
// implement. Dataset creation fails with ErrUnsupported naming the
// filter.
func WithSzip() DatasetOption {
	return func(o *datasetOptions) {
		o.szip = true
		o.compressors++
	}
}

// WithShuffle interleaves chunk bytes by element before compression,
// grouping each byte position together so compressors see longer
// runs. It has no effect without a compressor but is accepted alone.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) { o.shuffle = true }
}

// WithFletcher32 appends a Fletcher-32 checksum to every stored
// chunk and verifies it on read.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) { o.fletcher32 = true }
}

// WithAllocTime selects when chunk storage is allocated.
func WithAllocTime(t AllocTime) DatasetOption {
	return func(o *datasetOptions) { o.allocTime = t }
}

// WithChunkCache bounds the dataset's decoded-chunk cache to roughly
// the given number of bytes. Zero keeps the engine default.
func WithChunkCache(bytes int) DatasetOption {
	return func(o *datasetOptions) { o.cacheBytes = bytes }
}

// WithAttribute attaches an attribute to the dataset at creation.
// The value follows the same rules as SetAttr: a numeric or string
// scalar, or a slice of either.
func WithAttribute(name string, value interface{}) DatasetOption {
	return func(o *datasetOptions) {
		o.attributes = append(o.attributes, attrDef{name: name, value: value})
	}
}

// WithCreateIntermediates creates any missing parent groups along the
// dataset's path. Without it, creating a dataset under a missing
// group fails with ErrNotFound.
func WithCreateIntermediates() DatasetOption {
	return func(o *datasetOptions) { o.intermediates = true }
}
