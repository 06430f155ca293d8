package h5

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tpongo-afk/HighFive/internal/convert"
	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/filter"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// Group is a handle on one group in the file's object tree. Names
// passed to its methods are resolved relative to the group; a leading
// "/" makes them absolute.
type Group struct {
	file *File
	path string
}

// Name returns the group's own name, the final path component. The
// root group's name is "/".
func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return store.BaseName(g.path)
}

// Path returns the group's absolute path.
func (g *Group) Path() string { return g.path }

func (g *Group) resolve(name string) (string, error) {
	parts, err := splitName(name)
	if err != nil {
		return "", err
	}
	base := g.path
	if strings.HasPrefix(name, "/") {
		base = "/"
	}
	p := base
	for _, c := range parts {
		p = store.JoinPath(p, c)
	}
	return p, nil
}

// CreateGroup creates a group under this one, along with any missing
// intermediate groups. It fails with ErrExists when the final group
// is already present.
func (g *Group) CreateGroup(name string) (*Group, error) {
	if err := g.file.writable(); err != nil {
		return nil, err
	}
	parts, err := splitName(name)
	if err != nil {
		return nil, err
	}
	base := g.path
	if strings.HasPrefix(name, "/") {
		base = "/"
	}
	p := base
	for i, c := range parts {
		p = store.JoinPath(p, c)
		if err := g.file.engine.CreateGroup(p); err != nil {
			// Existing intermediates are fine; only the final
			// component must be new.
			if errors.Is(err, ErrExists) && i < len(parts)-1 {
				continue
			}
			return nil, err
		}
	}
	return &Group{file: g.file, path: p}, nil
}

// OpenGroup opens an existing group. Opening "/" yields the root.
func (g *Group) OpenGroup(name string) (*Group, error) {
	if err := g.file.usable(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(name, "/") && store.CleanPath(name) == "/" {
		return g.file.root, nil
	}
	p, err := g.resolve(name)
	if err != nil {
		return nil, err
	}
	kind, err := g.file.engine.Stat(p)
	if err != nil {
		return nil, err
	}
	if kind != store.KindGroup {
		return nil, fmt.Errorf("%w: %s is a dataset", ErrNotGroup, p)
	}
	return &Group{file: g.file, path: p}, nil
}

// OpenDataset opens an existing dataset under this group.
func (g *Group) OpenDataset(name string) (*Dataset, error) {
	if err := g.file.usable(); err != nil {
		return nil, err
	}
	p, err := g.resolve(name)
	if err != nil {
		return nil, err
	}
	return newDatasetHandle(g.file, p)
}

// Members returns the names of the group's direct children, sorted.
func (g *Group) Members() ([]string, error) {
	if err := g.file.usable(); err != nil {
		return nil, err
	}
	entries, err := g.file.engine.List(g.path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

// NumObjects returns the number of direct children.
func (g *Group) NumObjects() (int, error) {
	entries, err := g.Members()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// CreateDataset creates a dataset under this group and writes data
// into it. The dataset's shape and element type are taken from the
// container: a scalar makes a scalar dataset, a slice a rank-1
// dataset, nested slices or a fixed multi-dimensional array a
// higher-rank one.
func (g *Group) CreateDataset(name string, data interface{}, opts ...DatasetOption) (*Dataset, error) {
	v := reflect.ValueOf(data)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil data", ErrUnsupported)
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: nil data", ErrUnsupported)
	}
	info, err := convert.For(v.Type())
	if err != nil {
		return nil, err
	}
	ds, err := g.createDataset(name, containerDims(v, info), info.Elem, opts)
	if err != nil {
		return nil, err
	}
	if err := ds.Write(data); err != nil {
		return nil, err
	}
	return ds, nil
}

// CreateEmptyDataset creates a dataset without writing any data.
// elem fixes the element type by example, such as float64(0), int32(0)
// or "". The dataset's contents read back as zero values until
// written.
func (g *Group) CreateEmptyDataset(name string, space DataSpace, elem interface{}, opts ...DatasetOption) (*Dataset, error) {
	t := reflect.TypeOf(elem)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil element type", ErrUnsupported)
	}
	return g.createDataset(name, space.Dims(), t, opts)
}

// containerDims measures the shape of a classified container. Nested
// slices are measured along their first elements; axes below an empty
// slice stay zero.
func containerDims(v reflect.Value, info convert.Info) []uint64 {
	switch info.Class {
	case convert.Scalar:
		return nil
	case convert.FixedArray:
		dims := make([]uint64, 0, info.Rank)
		t := v.Type()
		for t.Kind() == reflect.Array {
			dims = append(dims, uint64(t.Len()))
			t = t.Elem()
		}
		return dims
	default:
		dims := make([]uint64, info.Rank)
		for i := 0; i < info.Rank; i++ {
			dims[i] = uint64(v.Len())
			if v.Len() == 0 {
				break
			}
			if i < info.Rank-1 {
				v = v.Index(0)
			}
		}
		return dims
	}
}

func (g *Group) createDataset(name string, dims []uint64, elem reflect.Type, opts []DatasetOption) (*Dataset, error) {
	if err := g.file.writable(); err != nil {
		return nil, err
	}
	o := &datasetOptions{}
	for _, opt := range opts {
		opt(o)
	}

	parts, err := splitName(name)
	if err != nil {
		return nil, err
	}
	base := g.path
	if strings.HasPrefix(name, "/") {
		base = "/"
	}
	path := base
	for _, c := range parts {
		path = store.JoinPath(path, c)
	}

	dt, err := dtype.Of(elem)
	if err != nil {
		return nil, err
	}

	if len(dims) == 0 {
		if len(o.chunks) > 0 || o.autoChunks {
			return nil, fmt.Errorf("%w: scalar datasets cannot be chunked", ErrUnsupported)
		}
		if len(o.maxDims) > 0 {
			return nil, fmt.Errorf("%w: scalar datasets cannot be resizable", ErrUnsupported)
		}
	}

	resizable := false
	if o.maxDims != nil {
		if len(o.maxDims) != len(dims) {
			return nil, fmt.Errorf("%w: maximum dimensions have rank %d, shape has rank %d",
				ErrShapeMismatch, len(o.maxDims), len(dims))
		}
		for i, m := range o.maxDims {
			if m == Unlimited {
				resizable = true
				continue
			}
			if m < dims[i] {
				return nil, fmt.Errorf("%w: maximum extent %d is below initial extent %d on axis %d",
					ErrShapeMismatch, m, dims[i], i)
			}
			if m != dims[i] {
				resizable = true
			}
		}
	}

	if dt.IsVariable() {
		if len(o.chunks) > 0 || o.autoChunks || o.compressors > 0 || o.shuffle || o.fletcher32 {
			return nil, fmt.Errorf("%w: string datasets cannot be chunked or filtered", ErrUnsupported)
		}
		if resizable {
			return nil, fmt.Errorf("%w: string datasets cannot be resizable", ErrUnsupported)
		}
	}

	filters, err := buildFilters(o, dt)
	if err != nil {
		return nil, err
	}

	chunks := o.chunks
	if len(chunks) > 0 {
		if len(chunks) != len(dims) {
			return nil, fmt.Errorf("%w: chunk shape has rank %d, dataset has rank %d",
				ErrShapeMismatch, len(chunks), len(dims))
		}
		for i, c := range chunks {
			if c == 0 {
				return nil, fmt.Errorf("%w: chunk extent on axis %d is zero", ErrShapeMismatch, i)
			}
		}
	} else if o.autoChunks || resizable || (len(filters) > 0 && !dt.IsVariable()) {
		chunks = GuessChunking(dims, o.maxDims, dt.Size)
	}
	if len(filters) > 0 && len(chunks) == 0 {
		return nil, fmt.Errorf("%w: scalar datasets cannot be filtered", ErrUnsupported)
	}

	if o.intermediates {
		parent := store.ParentPath(path)
		if parent != "/" {
			p := "/"
			for _, c := range store.SplitPath(parent) {
				p = store.JoinPath(p, c)
				if err := g.file.engine.CreateGroup(p); err != nil && !errors.Is(err, ErrExists) {
					return nil, err
				}
			}
		}
	}

	info := store.DatasetInfo{Dims: dims, MaxDims: o.maxDims, Type: dt}
	params := store.CreateParams{
		ChunkDims:  chunks,
		Filters:    filters,
		EarlyAlloc: o.allocTime == AllocEarly,
		CacheBytes: o.cacheBytes,
	}
	if err := g.file.engine.CreateDataset(path, info, params); err != nil {
		return nil, fmt.Errorf("creating dataset %s: %w", path, err)
	}

	for _, a := range o.attributes {
		if err := g.file.setAttr(path, a.name, a.value); err != nil {
			return nil, err
		}
	}
	return newDatasetHandle(g.file, path)
}

// buildFilters assembles the chunk pipeline in canonical order:
// shuffle first, then the compressor, then the checksum.
func buildFilters(o *datasetOptions, dt dtype.Descriptor) ([]filter.Info, error) {
	if o.compressors > 1 {
		return nil, fmt.Errorf("%w: at most one compression filter per dataset", ErrUnsupported)
	}
	if o.szip {
		if _, err := filter.NewPipeline([]filter.Info{{ID: filter.IDSZIP}}); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
	}
	var infos []filter.Info
	if o.shuffle {
		infos = append(infos, filter.Info{ID: filter.IDShuffle, ClientData: []uint32{dt.Size}})
	}
	if o.compressor != nil {
		ci := *o.compressor
		switch ci.ID {
		case filter.IDDeflate:
			if o.compLevel < 0 || o.compLevel > 9 {
				return nil, fmt.Errorf("deflate level %d out of range (0-9)", o.compLevel)
			}
			ci.ClientData = []uint32{uint32(o.compLevel)}
		case filter.IDZstd:
			if o.compLevel < 1 || o.compLevel > 22 {
				return nil, fmt.Errorf("zstd level %d out of range (1-22)", o.compLevel)
			}
			ci.ClientData = []uint32{uint32(o.compLevel)}
		}
		infos = append(infos, ci)
	}
	if o.fletcher32 {
		infos = append(infos, filter.Info{ID: filter.IDFletcher32})
	}
	return infos, nil
}
