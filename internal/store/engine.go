package store

import (
	"errors"
	"fmt"

	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/filter"
)

// Unlimited marks a dataset axis with no upper bound in MaxDims.
const Unlimited = ^uint64(0)

// Common engine errors
var (
	ErrNotFound   = errors.New("object not found")
	ErrExists     = errors.New("object already exists")
	ErrNotDataset = errors.New("object is not a dataset")
	ErrNotGroup   = errors.New("object is not a group")
	ErrReadOnly   = errors.New("store is read-only")
	ErrClosed     = errors.New("store is closed")
)

// Op identifies the direction of a transfer.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Kind identifies the class of a stored object.
type Kind uint8

const (
	KindGroup Kind = iota
	KindDataset
)

func (k Kind) String() string {
	if k == KindDataset {
		return "dataset"
	}
	return "group"
}

// Entry describes one child of a group.
type Entry struct {
	Name string
	Kind Kind
}

// Hyperslab is a rectangular selection: Offset is the starting
// coordinate and Count the extent per axis. A nil Hyperslab selects
// the whole dataset.
type Hyperslab struct {
	Offset []uint64
	Count  []uint64
}

// ResolveSelection expands a possibly-nil hyperslab against the dataset
// extents and bounds-checks it.
func ResolveSelection(sel *Hyperslab, dims []uint64) (offset, count []uint64, err error) {
	if sel == nil {
		return make([]uint64, len(dims)), append([]uint64(nil), dims...), nil
	}
	if len(sel.Offset) != len(dims) || len(sel.Count) != len(dims) {
		return nil, nil, fmt.Errorf("selection rank %d does not match dataset rank %d", len(sel.Count), len(dims))
	}
	for i := range dims {
		if sel.Offset[i]+sel.Count[i] > dims[i] {
			return nil, nil, fmt.Errorf("selection [%d, %d) exceeds extent %d on axis %d",
				sel.Offset[i], sel.Offset[i]+sel.Count[i], dims[i], i)
		}
	}
	return sel.Offset, sel.Count, nil
}

// DatasetInfo describes the stored shape and element type of a dataset.
type DatasetInfo struct {
	Dims    []uint64         `msgpack:"dims"`
	MaxDims []uint64         `msgpack:"max_dims"`
	Type    dtype.Descriptor `msgpack:"type"`
}

// CreateParams carries dataset creation properties into the engine.
type CreateParams struct {
	// ChunkDims is the chunk shape; empty means contiguous storage.
	ChunkDims []uint64 `msgpack:"chunk_dims,omitempty"`

	// Filters is the pipeline applied to each chunk, in write order.
	Filters []filter.Info `msgpack:"filters,omitempty"`

	// EarlyAlloc forces storage allocation at creation time instead of
	// on first write.
	EarlyAlloc bool `msgpack:"early_alloc,omitempty"`

	// CacheBytes bounds the per-dataset decoded chunk cache. Zero
	// selects the engine default; engines without a cache ignore it.
	CacheBytes int `msgpack:"cache_bytes,omitempty"`
}

// Buffer is the flat transfer buffer exchanged with the engine.
//
// For fixed-size element types only Bytes is used; it holds the
// selection in row-major order. For variable-length strings Strings
// holds one byte slice per element instead.
//
// On write the caller keeps ownership: the engine must copy out
// anything it retains and must not mutate the contents. On a
// fixed-size read the engine fills Bytes in place when the caller
// provides a slice of exactly the selection's byte length (this is
// how callers read straight into their own container storage), and
// allocates one otherwise; every selected element is written, so
// prior contents never leak through. On a string read the engine
// fills Strings with memory it still owns, sets Lease, and the caller
// must pass that token to Reclaim exactly once after copying the data
// out.
type Buffer struct {
	Bytes   []byte
	Strings [][]byte
	Lease   uint64
}

// Engine is the storage backend contract. Implementations persist a
// tree of groups and datasets addressed by slash-separated paths and
// move raw data in and out through Transfer.
type Engine interface {
	// CreateGroup creates a group at path. The parent must exist.
	CreateGroup(path string) error

	// CreateDataset creates a dataset at path with the given shape,
	// element type and creation properties.
	CreateDataset(path string, info DatasetInfo, params CreateParams) error

	// Dataset returns the current shape and type of the dataset at path.
	Dataset(path string) (*DatasetInfo, error)

	// Params returns the creation properties the dataset at path was
	// created with.
	Params(path string) (*CreateParams, error)

	// Resize grows or shrinks the dataset to dims, within its MaxDims.
	Resize(path string, dims []uint64) error

	// Stat reports what kind of object lives at path.
	Stat(path string) (Kind, error)

	// List returns the children of the group at path, sorted by name.
	List(path string) ([]Entry, error)

	// Transfer moves the selected region between the dataset and buf.
	// dt is the element type of the in-memory buffer and must match
	// the stored type. sel may be nil to address the whole dataset.
	Transfer(op Op, path string, dt dtype.Descriptor, sel *Hyperslab, buf *Buffer) error

	// Reclaim releases engine-owned memory handed out by a read, named
	// by the lease token from Buffer.Lease.
	Reclaim(lease uint64) error

	// SetAttr stores an attribute on the object at path. The value is
	// opaque to the engine.
	SetAttr(path, name string, value []byte) error

	// Attr returns the attribute value, or ErrNotFound.
	Attr(path, name string) ([]byte, error)

	// Attrs returns the attribute names of the object, sorted.
	Attrs(path string) ([]string, error)

	// Flush forces buffered state to stable storage.
	Flush() error

	// Close releases the engine. Further calls return ErrClosed.
	Close() error
}
