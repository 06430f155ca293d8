// Package boltstore implements a storage engine persisted in a bbolt
// file.
//
// The object tree maps directly onto nested bbolt buckets: every group
// and dataset is a bucket, child objects are sub-buckets keyed by name.
// Object payloads live in the same bucket under NUL-prefixed keys so
// they can never collide with child names:
//
//	\x00meta          msgpack object metadata (kind, shape, properties)
//	\x00attr:<name>   attribute value (opaque bytes)
//	\x00data          contiguous fixed-size element data
//	\x00chunk:<coord> one encoded chunk, big-endian uint64 per axis
//	\x00vlen          msgpack [][]byte for variable-length strings
//
// Chunks are keyed by grid coordinate rather than linear index so the
// keys survive resizes, which change the grid shape.
//
// Chunked datasets run their filter pipeline per chunk and keep a
// small LRU cache of decoded chunks per dataset. Chunk encode and
// decode fan out over an errgroup; bbolt transactions stay
// single-threaded.
package boltstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/tpongo-afk/HighFive/internal/chunk"
	"github.com/tpongo-afk/HighFive/internal/filter"
	"github.com/tpongo-afk/HighFive/internal/store"
)

var (
	keyMeta     = []byte("\x00meta")
	keyData     = []byte("\x00data")
	keyVlen     = []byte("\x00vlen")
	prefixChunk = []byte("\x00chunk:")
	prefixAttr  = []byte("\x00attr:")

	rootBucket = []byte("root")
)

// DefaultCacheBytes bounds each dataset's decoded chunk cache unless
// the dataset was created with an explicit cache size.
const DefaultCacheBytes = 1 << 20

// Options configures Open.
type Options struct {
	// ReadOnly opens the file without write access.
	ReadOnly bool

	// NoSync skips fsync on commit. Faster, unsafe on crash.
	NoSync bool

	// InitialMmapSize presizes the mmap to avoid remapping while the
	// file grows under load.
	InitialMmapSize int

	// Logger receives debug output. Nil discards.
	Logger *slog.Logger
}

// objMeta is the per-object metadata record.
type objMeta struct {
	Kind   store.Kind          `msgpack:"kind"`
	Info   *store.DatasetInfo  `msgpack:"info,omitempty"`
	Params *store.CreateParams `msgpack:"params,omitempty"`
}

// Store is a bbolt-backed store.Engine.
type Store struct {
	db  *bolt.DB
	log *slog.Logger

	mu     sync.Mutex
	caches map[string]*chunkCache
	closed bool

	leaseMu   sync.Mutex
	leases    map[uint64][][]byte
	nextLease uint64
}

var _ store.Engine = (*Store)(nil)

// Open opens or creates a store at path.
func Open(path string, opts Options) (*Store, error) {
	bopt := *bolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	bopt.ReadOnly = opts.ReadOnly
	bopt.NoSync = opts.NoSync
	if opts.InitialMmapSize > 0 {
		bopt.InitialMmapSize = opts.InitialMmapSize
	}

	db, err := bolt.Open(path, 0o666, &bopt)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		db:     db,
		log:    log,
		caches: make(map[string]*chunkCache),
		leases: make(map[uint64][][]byte),
	}

	if opts.ReadOnly {
		err = db.View(func(tx *bolt.Tx) error {
			if tx.Bucket(rootBucket) == nil {
				return fmt.Errorf("%s: missing root group", path)
			}
			return nil
		})
	} else {
		err = db.Update(func(tx *bolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists(rootBucket)
			if err != nil {
				return err
			}
			if b.Get(keyMeta) == nil {
				return putMeta(b, &objMeta{Kind: store.KindGroup})
			}
			return nil
		})
	}
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Debug("store opened", "path", path, "read_only", opts.ReadOnly)
	return s, nil
}

func (s *Store) CreateGroup(path string) error {
	if err := s.check(); err != nil {
		return err
	}
	path = store.CleanPath(path)

	err := s.db.Update(func(tx *bolt.Tx) error {
		parent, err := parentBucket(tx, path)
		if err != nil {
			return err
		}
		b, err := parent.CreateBucket([]byte(store.BaseName(path)))
		if errors.Is(err, bolt.ErrBucketExists) {
			return store.ErrExists
		}
		if err != nil {
			return err
		}
		return putMeta(b, &objMeta{Kind: store.KindGroup})
	})
	if err != nil {
		return fmt.Errorf("creating group %q: %w", path, mapErr(err))
	}
	return nil
}

func (s *Store) CreateDataset(path string, info store.DatasetInfo, params store.CreateParams) error {
	if err := s.check(); err != nil {
		return err
	}
	path = store.CleanPath(path)

	if len(params.Filters) > 0 && len(params.ChunkDims) == 0 {
		return fmt.Errorf("creating dataset %q: filters require chunked storage", path)
	}
	if len(params.ChunkDims) > 0 {
		if _, err := chunk.NewGrid(info.Dims, params.ChunkDims); err != nil {
			return fmt.Errorf("creating dataset %q: %w", path, err)
		}
		if info.Type.IsVariable() {
			return fmt.Errorf("creating dataset %q: string datasets cannot be chunked", path)
		}
	}

	meta := &objMeta{
		Kind:   store.KindDataset,
		Info:   normalizeInfo(&info),
		Params: &params,
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		parent, err := parentBucket(tx, path)
		if err != nil {
			return err
		}
		b, err := parent.CreateBucket([]byte(store.BaseName(path)))
		if errors.Is(err, bolt.ErrBucketExists) {
			return store.ErrExists
		}
		if err != nil {
			return err
		}
		if err := putMeta(b, meta); err != nil {
			return err
		}
		return s.initData(b, meta)
	})
	if err != nil {
		return fmt.Errorf("creating dataset %q: %w", path, mapErr(err))
	}

	s.log.Debug("dataset created", "path", path,
		"dims", info.Dims, "type", info.Type.String(), "chunks", params.ChunkDims)
	return nil
}

// initData allocates initial storage for a fresh dataset. String data
// always starts materialized; fixed data only when early allocation is
// requested.
func (s *Store) initData(b *bolt.Bucket, meta *objMeta) error {
	n := chunk.NumElements(meta.Info.Dims)

	if meta.Info.Type.IsVariable() {
		raw, err := msgpack.Marshal(make([][]byte, n))
		if err != nil {
			return err
		}
		return b.Put(keyVlen, raw)
	}

	if !meta.Params.EarlyAlloc {
		return nil
	}

	if len(meta.Params.ChunkDims) == 0 {
		return b.Put(keyData, make([]byte, n*uint64(meta.Info.Type.Size)))
	}

	grid, err := chunk.NewGrid(meta.Info.Dims, meta.Params.ChunkDims)
	if err != nil {
		return err
	}
	pipe, err := filter.NewPipeline(meta.Params.Filters)
	if err != nil {
		return err
	}
	encoded, err := pipe.Encode(make([]byte, grid.ChunkElems()*uint64(meta.Info.Type.Size)))
	if err != nil {
		return err
	}
	for idx := uint64(0); idx < grid.Count(); idx++ {
		if err := b.Put(chunkKey(grid.Coords(idx)), encoded); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Dataset(path string) (*store.DatasetInfo, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var info *store.DatasetInfo
	err := s.db.View(func(tx *bolt.Tx) error {
		_, meta, err := datasetBucket(tx, path)
		if err != nil {
			return err
		}
		info = meta.Info
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", path, mapErr(err))
	}
	return info, nil
}

func (s *Store) Params(path string) (*store.CreateParams, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var params *store.CreateParams
	err := s.db.View(func(tx *bolt.Tx) error {
		_, meta, err := datasetBucket(tx, path)
		if err != nil {
			return err
		}
		params = meta.Params
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dataset %q: %w", path, mapErr(err))
	}
	if params == nil {
		params = &store.CreateParams{}
	}
	return params, nil
}

func (s *Store) Stat(path string) (store.Kind, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var kind store.Kind
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := objectBucket(tx, path)
		if err != nil {
			return err
		}
		meta, err := getMeta(b)
		if err != nil {
			return err
		}
		kind = meta.Kind
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", path, mapErr(err))
	}
	return kind, nil
}

func (s *Store) List(path string) ([]store.Entry, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var entries []store.Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := objectBucket(tx, path)
		if err != nil {
			return err
		}
		meta, err := getMeta(b)
		if err != nil {
			return err
		}
		if meta.Kind != store.KindGroup {
			return store.ErrNotGroup
		}

		// Bucket keys come back sorted, so the entries are too.
		return b.ForEachBucket(func(k []byte) error {
			child := b.Bucket(k)
			childMeta, err := getMeta(child)
			if err != nil {
				return err
			}
			entries = append(entries, store.Entry{Name: string(k), Kind: childMeta.Kind})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", path, mapErr(err))
	}
	return entries, nil
}

func (s *Store) SetAttr(path, name string, value []byte) error {
	if err := s.check(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := objectBucket(tx, path)
		if err != nil {
			return err
		}
		return b.Put(attrKey(name), value)
	})
	if err != nil {
		return fmt.Errorf("setting attribute %q on %q: %w", name, path, mapErr(err))
	}
	return nil
}

func (s *Store) Attr(path, name string) ([]byte, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := objectBucket(tx, path)
		if err != nil {
			return err
		}
		v := b.Get(attrKey(name))
		if v == nil {
			return fmt.Errorf("attribute %q: %w", name, store.ErrNotFound)
		}
		value = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading attribute of %q: %w", path, mapErr(err))
	}
	return value, nil
}

func (s *Store) Attrs(path string) ([]string, error) {
	if err := s.check(); err != nil {
		return nil, err
	}

	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b, err := objectBucket(tx, path)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Seek(prefixAttr); k != nil && bytes.HasPrefix(k, prefixAttr); k, v = c.Next() {
			if v == nil {
				continue
			}
			names = append(names, string(k[len(prefixAttr):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing attributes of %q: %w", path, mapErr(err))
	}
	return names, nil
}

func (s *Store) Flush() error {
	if err := s.check(); err != nil {
		return err
	}
	if s.db.IsReadOnly() {
		return nil
	}
	return s.db.Sync()
}

func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return store.ErrClosed
	}
	s.closed = true
	s.caches = nil
	s.mu.Unlock()

	s.log.Debug("store closed", "path", s.db.Path())
	return s.db.Close()
}

func (s *Store) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

// objectBucket walks the nested buckets down to path.
func objectBucket(tx *bolt.Tx, path string) (*bolt.Bucket, error) {
	b := tx.Bucket(rootBucket)
	if b == nil {
		return nil, store.ErrNotFound
	}
	for _, name := range store.SplitPath(path) {
		b = b.Bucket([]byte(name))
		if b == nil {
			return nil, store.ErrNotFound
		}
	}
	return b, nil
}

// parentBucket resolves the containing group of path and requires it
// to be a group.
func parentBucket(tx *bolt.Tx, path string) (*bolt.Bucket, error) {
	b, err := objectBucket(tx, store.ParentPath(path))
	if err != nil {
		return nil, fmt.Errorf("parent: %w", err)
	}
	meta, err := getMeta(b)
	if err != nil {
		return nil, err
	}
	if meta.Kind != store.KindGroup {
		return nil, fmt.Errorf("parent: %w", store.ErrNotGroup)
	}
	return b, nil
}

// datasetBucket resolves path and requires a dataset, returning its
// bucket and metadata.
func datasetBucket(tx *bolt.Tx, path string) (*bolt.Bucket, *objMeta, error) {
	b, err := objectBucket(tx, path)
	if err != nil {
		return nil, nil, err
	}
	meta, err := getMeta(b)
	if err != nil {
		return nil, nil, err
	}
	if meta.Kind != store.KindDataset {
		return nil, nil, store.ErrNotDataset
	}
	return b, meta, nil
}

func getMeta(b *bolt.Bucket) (*objMeta, error) {
	raw := b.Get(keyMeta)
	if raw == nil {
		return nil, fmt.Errorf("corrupt object: missing metadata")
	}
	var meta objMeta
	if err := msgpack.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decoding object metadata: %w", err)
	}
	return &meta, nil
}

func putMeta(b *bolt.Bucket, meta *objMeta) error {
	raw, err := msgpack.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding object metadata: %w", err)
	}
	return b.Put(keyMeta, raw)
}

func chunkKey(coords []uint64) []byte {
	k := make([]byte, len(prefixChunk)+8*len(coords))
	copy(k, prefixChunk)
	for i, c := range coords {
		binary.BigEndian.PutUint64(k[len(prefixChunk)+8*i:], c)
	}
	return k
}

func chunkKeyCoords(k []byte) []uint64 {
	raw := k[len(prefixChunk):]
	coords := make([]uint64, len(raw)/8)
	for i := range coords {
		coords[i] = binary.BigEndian.Uint64(raw[8*i:])
	}
	return coords
}

func attrKey(name string) []byte {
	return append(append([]byte(nil), prefixAttr...), name...)
}

// normalizeInfo deep-copies info and defaults MaxDims to Dims.
func normalizeInfo(info *store.DatasetInfo) *store.DatasetInfo {
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

// mapErr translates bbolt failures into engine sentinel errors.
func mapErr(err error) error {
	switch {
	case errors.Is(err, bolt.ErrDatabaseReadOnly), errors.Is(err, bolt.ErrTxNotWritable):
		return store.ErrReadOnly
	case errors.Is(err, bolt.ErrDatabaseNotOpen):
		return store.ErrClosed
	default:
		return err
	}
}
