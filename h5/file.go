package h5

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/tpongo-afk/HighFive/internal/store"
	"github.com/tpongo-afk/HighFive/internal/store/boltstore"
	"github.com/tpongo-afk/HighFive/internal/store/memstore"
)

// File is an open hierarchical data file. Its objects form a tree of
// groups and datasets rooted at "/", each addressable by a
// slash-separated path. A File is safe to share between goroutines.
type File struct {
	path     string
	engine   store.Engine
	log      *slog.Logger
	root     *Group
	readOnly bool
	closed   atomic.Bool
}

// Create creates a new file at path, truncating any existing file.
func Create(path string, opts ...FileOption) (*File, error) {
	o := applyFileOptions(opts)
	if o.readOnly {
		return nil, fmt.Errorf("%w: cannot create %s", ErrReadOnly, path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("truncating %s: %w", path, err)
	}
	return openFile(path, o)
}

// Open opens an existing file at path. The file must exist; use
// Create to make a new one.
func Open(path string, opts ...FileOption) (*File, error) {
	o := applyFileOptions(opts)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return openFile(path, o)
}

// NewMemory creates a file backed entirely by memory. It needs no
// Close, though calling Close is harmless, and its contents vanish
// with the process.
func NewMemory(opts ...FileOption) *File {
	o := applyFileOptions(opts)
	return newFile(":memory:", memstore.New(), o)
}

func applyFileOptions(opts []FileOption) *fileOptions {
	o := &fileOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func openFile(path string, o *fileOptions) (*File, error) {
	eng, err := boltstore.Open(path, boltstore.Options{
		ReadOnly:        o.readOnly,
		NoSync:          o.noSync,
		InitialMmapSize: o.mmapSize,
		Logger:          o.logger,
	})
	if err != nil {
		return nil, err
	}
	return newFile(path, eng, o), nil
}

func newFile(path string, eng store.Engine, o *fileOptions) *File {
	log := o.logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f := &File{
		path:     path,
		engine:   eng,
		log:      log,
		readOnly: o.readOnly,
	}
	f.root = &Group{file: f, path: "/"}
	f.log.Debug("file opened", "path", path, "read_only", o.readOnly)
	return f
}

// Close flushes and releases the file. Further operations on the
// file or any handle derived from it fail with ErrClosed. Closing an
// already closed file is a no-op.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.log.Debug("file closed", "path", f.path)
	return f.engine.Close()
}

// Flush forces buffered writes to stable storage.
func (f *File) Flush() error {
	if err := f.usable(); err != nil {
		return err
	}
	return f.engine.Flush()
}

// Path returns the file's path, or ":memory:" for memory files.
func (f *File) Path() string { return f.path }

// IsReadOnly reports whether the file was opened read-only.
func (f *File) IsReadOnly() bool { return f.readOnly }

// Root returns the root group "/".
func (f *File) Root() *Group { return f.root }

func (f *File) usable() error {
	if f.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (f *File) writable() error {
	if f.closed.Load() {
		return ErrClosed
	}
	if f.readOnly {
		return ErrReadOnly
	}
	return nil
}

// CreateGroup creates a group at the given absolute path, along with
// any missing parents.
func (f *File) CreateGroup(path string) (*Group, error) {
	return f.root.CreateGroup(path)
}

// OpenGroup opens the group at the given absolute path.
func (f *File) OpenGroup(path string) (*Group, error) {
	return f.root.OpenGroup(path)
}

// CreateDataset creates a dataset at the given absolute path and
// writes data into it. The dataset's shape and element type are
// taken from the container.
func (f *File) CreateDataset(path string, data interface{}, opts ...DatasetOption) (*Dataset, error) {
	return f.root.CreateDataset(path, data, opts...)
}

// CreateEmptyDataset creates a dataset at the given absolute path
// without writing any data. elem fixes the element type, for example
// float64(0) or int32(0).
func (f *File) CreateEmptyDataset(path string, space DataSpace, elem interface{}, opts ...DatasetOption) (*Dataset, error) {
	return f.root.CreateEmptyDataset(path, space, elem, opts...)
}

// OpenDataset opens the dataset at the given absolute path.
func (f *File) OpenDataset(path string) (*Dataset, error) {
	return f.root.OpenDataset(path)
}

// SetAttr sets an attribute addressed as "/path/to/object@name".
func (f *File) SetAttr(attrPath string, value interface{}) error {
	objPath, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return err
	}
	return f.setAttr(objPath, name, value)
}

// GetAttr reads an attribute addressed as "/path/to/object@name".
func (f *File) GetAttr(attrPath string) (*Attribute, error) {
	objPath, name, err := ParseAttrPath(attrPath)
	if err != nil {
		return nil, err
	}
	return f.attr(objPath, name)
}

// ReadAttr reads the attribute addressed as "/path/to/object@name"
// and returns its decoded value: integers as int64 or uint64,
// floating point as float64, strings as string, slices as
// []interface{}.
func (f *File) ReadAttr(attrPath string) (interface{}, error) {
	a, err := f.GetAttr(attrPath)
	if err != nil {
		return nil, err
	}
	return a.Value()
}
