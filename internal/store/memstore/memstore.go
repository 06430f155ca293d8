// Package memstore implements an in-memory storage engine.
//
// Datasets are held as flat row-major buffers. There is no chunking
// and no filter pipeline; creation parameters asking for them are
// accepted and recorded but storage stays contiguous. The engine is
// safe for concurrent use.
package memstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tpongo-afk/HighFive/internal/chunk"
	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/filter"
	"github.com/tpongo-afk/HighFive/internal/store"
)

// object is one node of the in-memory tree.
type object struct {
	kind   store.Kind
	info   *store.DatasetInfo
	params store.CreateParams
	raw    []byte   // fixed-size element data, nil until first write
	strs   [][]byte // variable-length string data, one entry per element
	attrs  map[string][]byte
}

// Store is an in-memory store.Engine.
type Store struct {
	mu      sync.RWMutex
	objects map[string]*object
	closed  bool

	leaseMu   sync.Mutex
	leases    map[uint64][][]byte
	nextLease uint64
}

var _ store.Engine = (*Store)(nil)

// New creates an empty store containing only the root group.
func New() *Store {
	return &Store{
		objects: map[string]*object{
			"/": {kind: store.KindGroup, attrs: map[string][]byte{}},
		},
		leases: make(map[uint64][][]byte),
	}
}

func (s *Store) CreateGroup(path string) error {
	path = store.CleanPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if _, ok := s.objects[path]; ok {
		return fmt.Errorf("creating group %q: %w", path, store.ErrExists)
	}
	if err := s.checkParent(path); err != nil {
		return err
	}

	s.objects[path] = &object{kind: store.KindGroup, attrs: map[string][]byte{}}
	return nil
}

func (s *Store) CreateDataset(path string, info store.DatasetInfo, params store.CreateParams) error {
	path = store.CleanPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	if _, ok := s.objects[path]; ok {
		return fmt.Errorf("creating dataset %q: %w", path, store.ErrExists)
	}
	if err := s.checkParent(path); err != nil {
		return err
	}

	obj := &object{
		kind: store.KindDataset,
		info: cloneInfo(&info),
		params: store.CreateParams{
			ChunkDims:  append([]uint64(nil), params.ChunkDims...),
			Filters:    append([]filter.Info(nil), params.Filters...),
			EarlyAlloc: params.EarlyAlloc,
			CacheBytes: params.CacheBytes,
		},
		attrs: map[string][]byte{},
	}

	n := chunk.NumElements(obj.info.Dims)
	if obj.info.Type.IsVariable() {
		obj.strs = make([][]byte, n)
	} else if params.EarlyAlloc {
		obj.raw = make([]byte, n*uint64(obj.info.Type.Size))
	}

	s.objects[path] = obj
	return nil
}

func (s *Store) Dataset(path string) (*store.DatasetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	return cloneInfo(obj.info), nil
}

func (s *Store) Params(path string) (*store.CreateParams, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	params := store.CreateParams{
		ChunkDims:  append([]uint64(nil), obj.params.ChunkDims...),
		Filters:    append([]filter.Info(nil), obj.params.Filters...),
		EarlyAlloc: obj.params.EarlyAlloc,
		CacheBytes: obj.params.CacheBytes,
	}
	return &params, nil
}

func (s *Store) Resize(path string, dims []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, err := s.dataset(path)
	if err != nil {
		return err
	}

	info := obj.info
	if len(dims) != len(info.Dims) {
		return fmt.Errorf("resizing %q: new shape has rank %d, dataset has rank %d", path, len(dims), len(info.Dims))
	}
	for i, d := range dims {
		if info.MaxDims[i] != store.Unlimited && d > info.MaxDims[i] {
			return fmt.Errorf("resizing %q: extent %d exceeds maximum %d on axis %d", path, d, info.MaxDims[i], i)
		}
	}

	// Overlapping region survives; everything else is dropped or zeroed.
	box := make([]uint64, len(dims))
	for i := range box {
		box[i] = min64(dims[i], info.Dims[i])
	}
	zeros := make([]uint64, len(dims))

	n := chunk.NumElements(dims)
	if info.Type.IsVariable() {
		strs := make([][]byte, n)
		chunk.CopyElems(strs, dims, zeros, obj.strs, info.Dims, zeros, box)
		obj.strs = strs
	} else if obj.raw != nil {
		raw := make([]byte, n*uint64(info.Type.Size))
		chunk.CopyRegion(raw, dims, zeros, obj.raw, info.Dims, zeros, box, int(info.Type.Size))
		obj.raw = raw
	}

	info.Dims = append([]uint64(nil), dims...)
	return nil
}

func (s *Store) Stat(path string) (store.Kind, error) {
	path = store.CleanPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, store.ErrClosed
	}
	obj, ok := s.objects[path]
	if !ok {
		return 0, fmt.Errorf("stat %q: %w", path, store.ErrNotFound)
	}
	return obj.kind, nil
}

func (s *Store) List(path string) ([]store.Entry, error) {
	path = store.CleanPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("listing %q: %w", path, store.ErrNotFound)
	}
	if obj.kind != store.KindGroup {
		return nil, fmt.Errorf("listing %q: %w", path, store.ErrNotGroup)
	}

	prefix := path
	if prefix != "/" {
		prefix += "/"
	}
	var entries []store.Entry
	for p, o := range s.objects {
		if p == "/" || !strings.HasPrefix(p, prefix) {
			continue
		}
		if strings.Contains(p[len(prefix):], "/") {
			continue // deeper descendant
		}
		entries = append(entries, store.Entry{Name: p[len(prefix):], Kind: o.kind})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *Store) Transfer(op store.Op, path string, dt dtype.Descriptor, sel *store.Hyperslab, buf *store.Buffer) error {
	if op == store.OpWrite {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	obj, err := s.dataset(path)
	if err != nil {
		return err
	}

	info := obj.info
	if !dt.Equal(info.Type) {
		return fmt.Errorf("transfer %q: element type mismatch (buffer %s, dataset %s)", path, dt, info.Type)
	}

	offset, count, err := store.ResolveSelection(sel, info.Dims)
	if err != nil {
		return fmt.Errorf("transfer %q: %w", path, err)
	}
	n := chunk.NumElements(count)

	if info.Type.IsVariable() {
		return s.transferStrings(op, path, obj, offset, count, n, buf)
	}
	return transferBytes(op, path, obj, offset, count, n, buf)
}

func transferBytes(op store.Op, path string, obj *object, offset, count []uint64, n uint64, buf *store.Buffer) error {
	elemSize := int(obj.info.Type.Size)
	byteLen := n * uint64(elemSize)
	zeros := make([]uint64, len(count))

	if op == store.OpWrite {
		if uint64(len(buf.Bytes)) != byteLen {
			return fmt.Errorf("transfer %q: buffer holds %d bytes, selection needs %d", path, len(buf.Bytes), byteLen)
		}
		if obj.raw == nil {
			obj.raw = make([]byte, chunk.NumElements(obj.info.Dims)*uint64(elemSize))
		}
		chunk.CopyRegion(obj.raw, obj.info.Dims, offset, buf.Bytes, count, zeros, count, elemSize)
		return nil
	}

	if uint64(len(buf.Bytes)) != byteLen {
		buf.Bytes = make([]byte, byteLen)
	}
	buf.Lease = 0
	if obj.raw == nil {
		clear(buf.Bytes) // never written, reads as zeros
		return nil
	}
	chunk.CopyRegion(buf.Bytes, count, zeros, obj.raw, obj.info.Dims, offset, count, elemSize)
	return nil
}

func (s *Store) transferStrings(op store.Op, path string, obj *object, offset, count []uint64, n uint64, buf *store.Buffer) error {
	zeros := make([]uint64, len(count))

	if op == store.OpWrite {
		if uint64(len(buf.Strings)) != n {
			return fmt.Errorf("transfer %q: buffer holds %d strings, selection needs %d", path, len(buf.Strings), n)
		}
		owned := make([][]byte, n)
		for i, b := range buf.Strings {
			owned[i] = append([]byte(nil), b...)
		}
		chunk.CopyElems(obj.strs, obj.info.Dims, offset, owned, count, zeros, count)
		return nil
	}

	out := make([][]byte, n)
	chunk.CopyElems(out, count, zeros, obj.strs, obj.info.Dims, offset, count)

	// The slices handed out stay owned by the engine until reclaimed.
	s.leaseMu.Lock()
	s.nextLease++
	lease := s.nextLease
	s.leases[lease] = out
	s.leaseMu.Unlock()

	buf.Strings = out
	buf.Lease = lease
	return nil
}

func (s *Store) Reclaim(lease uint64) error {
	s.leaseMu.Lock()
	defer s.leaseMu.Unlock()
	if _, ok := s.leases[lease]; !ok {
		return fmt.Errorf("reclaiming lease %d: %w", lease, store.ErrNotFound)
	}
	delete(s.leases, lease)
	return nil
}

func (s *Store) SetAttr(path, name string, value []byte) error {
	path = store.CleanPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	obj, ok := s.objects[path]
	if !ok {
		return fmt.Errorf("setting attribute on %q: %w", path, store.ErrNotFound)
	}
	obj.attrs[name] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Attr(path, name string) ([]byte, error) {
	path = store.CleanPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("reading attribute of %q: %w", path, store.ErrNotFound)
	}
	value, ok := obj.attrs[name]
	if !ok {
		return nil, fmt.Errorf("attribute %q of %q: %w", name, path, store.ErrNotFound)
	}
	return append([]byte(nil), value...), nil
}

func (s *Store) Attrs(path string) ([]string, error) {
	path = store.CleanPath(path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("listing attributes of %q: %w", path, store.ErrNotFound)
	}
	names := make([]string, 0, len(obj.attrs))
	for name := range obj.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	s.closed = true
	s.objects = nil
	return nil
}

// dataset fetches the object at path and requires it to be a dataset.
// The caller holds s.mu.
func (s *Store) dataset(path string) (*object, error) {
	if s.closed {
		return nil, store.ErrClosed
	}
	obj, ok := s.objects[store.CleanPath(path)]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", path, store.ErrNotFound)
	}
	if obj.kind != store.KindDataset {
		return nil, fmt.Errorf("dataset %q: %w", path, store.ErrNotDataset)
	}
	return obj, nil
}

// checkParent requires the containing group of path to exist.
// The caller holds s.mu.
func (s *Store) checkParent(path string) error {
	parent, ok := s.objects[store.ParentPath(path)]
	if !ok {
		return fmt.Errorf("parent of %q: %w", path, store.ErrNotFound)
	}
	if parent.kind != store.KindGroup {
		return fmt.Errorf("parent of %q: %w", path, store.ErrNotGroup)
	}
	return nil
}

func cloneInfo(info *store.DatasetInfo) *store.DatasetInfo {
	out := &store.DatasetInfo{
		Dims: append([]uint64(nil), info.Dims...),
		Type: info.Type,
	}
	if info.MaxDims != nil {
		out.MaxDims = append([]uint64(nil), info.MaxDims...)
	} else {
		out.MaxDims = append([]uint64(nil), info.Dims...)
	}
	return out
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
