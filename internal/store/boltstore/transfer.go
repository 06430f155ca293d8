package boltstore

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/errgroup"

	"github.com/tpongo-afk/HighFive/internal/chunk"
	"github.com/tpongo-afk/HighFive/internal/dtype"
	"github.com/tpongo-afk/HighFive/internal/filter"
	"github.com/tpongo-afk/HighFive/internal/store"
)

func (s *Store) Transfer(op store.Op, path string, dt dtype.Descriptor, sel *store.Hyperslab, buf *store.Buffer) error {
	if err := s.check(); err != nil {
		return err
	}
	path = store.CleanPath(path)

	var meta *objMeta
	err := s.db.View(func(tx *bolt.Tx) error {
		_, m, err := datasetBucket(tx, path)
		meta = m
		return err
	})
	if err != nil {
		return fmt.Errorf("transfer %q: %w", path, mapErr(err))
	}

	if !dt.Equal(meta.Info.Type) {
		return fmt.Errorf("transfer %q: element type mismatch (buffer %s, dataset %s)", path, dt, meta.Info.Type)
	}
	offset, count, err := store.ResolveSelection(sel, meta.Info.Dims)
	if err != nil {
		return fmt.Errorf("transfer %q: %w", path, err)
	}
	n := chunk.NumElements(count)

	switch {
	case meta.Info.Type.IsVariable():
		err = s.transferVlen(op, path, meta, offset, count, n, buf)
	case len(meta.Params.ChunkDims) > 0:
		if op == store.OpWrite {
			err = s.writeChunked(path, meta, offset, count, n, buf)
		} else {
			err = s.readChunked(path, meta, offset, count, n, buf)
		}
	default:
		err = s.transferContiguous(op, path, meta, offset, count, n, buf)
	}
	if err != nil {
		return fmt.Errorf("transfer %q: %w", path, mapErr(err))
	}

	s.log.Debug("transfer done", "op", op.String(), "path", path, "elements", n)
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

// chunkRegion is the overlap of the selection with one chunk.
type chunkRegion struct {
	coords   []uint64
	index    uint64 // linear index in the current grid, cache key
	chunkOff []uint64
	selOff   []uint64
	box      []uint64
	full     bool // selection covers the whole chunk
}

func collectRegions(grid *chunk.Grid, offset, count []uint64) []chunkRegion {
	var regions []chunkRegion
	_ = grid.Overlap(offset, count, func(coords, chunkOff, selOff, box []uint64) error {
		full := true
		for i, b := range box {
			if b != grid.ChunkDims()[i] {
				full = false
				break
			}
		}
		regions = append(regions, chunkRegion{
			coords:   append([]uint64(nil), coords...),
			index:    grid.Index(coords),
			chunkOff: append([]uint64(nil), chunkOff...),
			selOff:   append([]uint64(nil), selOff...),
			box:      append([]uint64(nil), box...),
			full:     full,
		})
		return nil
	})
	return regions
}

func (s *Store) readChunked(path string, meta *objMeta, offset, count []uint64, n uint64, buf *store.Buffer) error {
	elemSize := int(meta.Info.Type.Size)
	grid, err := chunk.NewGrid(meta.Info.Dims, meta.Params.ChunkDims)
	if err != nil {
		return err
	}
	pipe, err := filter.NewPipeline(meta.Params.Filters)
	if err != nil {
		return err
	}

	// A caller-provided slice of the right size is filled in place.
	byteLen := n * uint64(elemSize)
	out := buf.Bytes
	borrowed := uint64(len(out)) == byteLen
	if !borrowed {
		out = make([]byte, byteLen)
	}
	regions := collectRegions(grid, offset, count)
	cache := s.cacheFor(path, meta)
	chunkBytes := int(grid.ChunkElems()) * elemSize

	// Serve what we can from decoded chunks already in cache.
	var misses []chunkRegion
	for _, r := range regions {
		if data, ok := cache.get(r.index); ok {
			chunk.CopyRegion(out, count, r.selOff, data, grid.ChunkDims(), r.chunkOff, r.box, elemSize)
			continue
		}
		misses = append(misses, r)
	}

	// Clone the stored chunks inside one read transaction, then decode
	// outside it so the transaction stays short.
	stored := make(map[uint64][]byte, len(misses))
	if len(misses) > 0 {
		err = s.db.View(func(tx *bolt.Tx) error {
			b, _, err := datasetBucket(tx, path)
			if err != nil {
				return err
			}
			for _, r := range misses {
				if v := b.Get(chunkKey(r.coords)); v != nil {
					stored[r.index] = append([]byte(nil), v...)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	var zeroChunk []byte
	for _, r := range misses {
		r := r
		raw, ok := stored[r.index]
		if !ok {
			// Never written, reads as zeros. A fresh out is already
			// zeroed; a borrowed one must be cleared explicitly.
			if borrowed {
				if zeroChunk == nil {
					zeroChunk = make([]byte, chunkBytes)
				}
				chunk.CopyRegion(out, count, r.selOff, zeroChunk, grid.ChunkDims(), r.chunkOff, r.box, elemSize)
			}
			continue
		}
		g.Go(func() error {
			data, err := pipe.Decode(raw)
			if err != nil {
				return fmt.Errorf("chunk %v: %w", r.coords, err)
			}
			if len(data) != chunkBytes {
				return fmt.Errorf("chunk %v: decoded %d bytes, want %d", r.coords, len(data), chunkBytes)
			}
			// Regions of distinct chunks never overlap in out.
			chunk.CopyRegion(out, count, r.selOff, data, grid.ChunkDims(), r.chunkOff, r.box, elemSize)
			cache.put(r.index, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	buf.Bytes = out
	buf.Lease = 0
	return nil
}

func (s *Store) writeChunked(path string, meta *objMeta, offset, count []uint64, n uint64, buf *store.Buffer) error {
	elemSize := int(meta.Info.Type.Size)
	if uint64(len(buf.Bytes)) != n*uint64(elemSize) {
		return fmt.Errorf("buffer holds %d bytes, selection needs %d", len(buf.Bytes), n*uint64(elemSize))
	}
	grid, err := chunk.NewGrid(meta.Info.Dims, meta.Params.ChunkDims)
	if err != nil {
		return err
	}
	pipe, err := filter.NewPipeline(meta.Params.Filters)
	if err != nil {
		return err
	}

	regions := collectRegions(grid, offset, count)
	cache := s.cacheFor(path, meta)
	chunkDims := grid.ChunkDims()
	chunkBytes := int(grid.ChunkElems()) * elemSize

	type writeItem struct {
		region chunkRegion
		stored []byte // current encoded bytes, partial chunks only
		base   []byte // merged decoded chunk
		enc    []byte // encoded result
	}
	items := make([]*writeItem, len(regions))

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, _, err := datasetBucket(tx, path)
		if err != nil {
			return err
		}

		// Partially-covered chunks need their current content merged in.
		for i, r := range regions {
			items[i] = &writeItem{region: r}
			if r.full {
				continue
			}
			if data, ok := cache.get(r.index); ok {
				items[i].base = append([]byte(nil), data...)
				continue
			}
			if v := b.Get(chunkKey(r.coords)); v != nil {
				items[i].stored = append([]byte(nil), v...)
			}
		}

		// Decode, merge and re-encode off the transaction goroutine;
		// each worker owns its item.
		g := new(errgroup.Group)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, it := range items {
			it := it
			g.Go(func() error {
				if it.base == nil {
					if it.stored != nil {
						data, err := pipe.Decode(it.stored)
						if err != nil {
							return fmt.Errorf("chunk %v: %w", it.region.coords, err)
						}
						if len(data) != chunkBytes {
							return fmt.Errorf("chunk %v: decoded %d bytes, want %d", it.region.coords, len(data), chunkBytes)
						}
						it.base = data
					} else {
						it.base = make([]byte, chunkBytes)
					}
				}
				chunk.CopyRegion(it.base, chunkDims, it.region.chunkOff, buf.Bytes, count, it.region.selOff, it.region.box, elemSize)
				enc, err := pipe.Encode(it.base)
				if err != nil {
					return fmt.Errorf("chunk %v: %w", it.region.coords, err)
				}
				it.enc = enc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, it := range items {
			if err := b.Put(chunkKey(it.region.coords), it.enc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The merged chunks are the freshest decoded copies.
	for _, it := range items {
		cache.put(it.region.index, it.base)
	}
	return nil
}

func (s *Store) transferContiguous(op store.Op, path string, meta *objMeta, offset, count []uint64, n uint64, buf *store.Buffer) error {
	elemSize := int(meta.Info.Type.Size)
	byteLen := n * uint64(elemSize)
	total := chunk.NumElements(meta.Info.Dims)
	zeros := make([]uint64, len(count))

	if op == store.OpWrite {
		if uint64(len(buf.Bytes)) != byteLen {
			return fmt.Errorf("buffer holds %d bytes, selection needs %d", len(buf.Bytes), byteLen)
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			b, _, err := datasetBucket(tx, path)
			if err != nil {
				return err
			}
			// A selection spanning every element replaces the value
			// wholesale; bolt copies it into its pages before commit.
			if n == total {
				return b.Put(keyData, buf.Bytes)
			}
			base := make([]byte, total*uint64(elemSize))
			if v := b.Get(keyData); v != nil {
				copy(base, v)
			}
			chunk.CopyRegion(base, meta.Info.Dims, offset, buf.Bytes, count, zeros, count, elemSize)
			return b.Put(keyData, base)
		})
	}

	out := buf.Bytes
	if uint64(len(out)) != byteLen {
		out = make([]byte, byteLen)
	}
	err := s.db.View(func(tx *bolt.Tx) error {
		b, _, err := datasetBucket(tx, path)
		if err != nil {
			return err
		}
		if v := b.Get(keyData); v != nil {
			chunk.CopyRegion(out, count, zeros, v, meta.Info.Dims, offset, count, elemSize)
		} else {
			clear(out) // never written, reads as zeros
		}
		return nil
	})
	if err != nil {
		return err
	}
	buf.Bytes = out
	buf.Lease = 0
	return nil
}

func (s *Store) transferVlen(op store.Op, path string, meta *objMeta, offset, count []uint64, n uint64, buf *store.Buffer) error {
	zeros := make([]uint64, len(count))

	if op == store.OpWrite {
		if uint64(len(buf.Strings)) != n {
			return fmt.Errorf("buffer holds %d strings, selection needs %d", len(buf.Strings), n)
		}
		owned := make([][]byte, n)
		for i, v := range buf.Strings {
			owned[i] = append([]byte(nil), v...)
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			b, _, err := datasetBucket(tx, path)
			if err != nil {
				return err
			}
			cur, err := loadVlen(b, meta)
			if err != nil {
				return err
			}
			chunk.CopyElems(cur, meta.Info.Dims, offset, owned, count, zeros, count)
			raw, err := msgpack.Marshal(cur)
			if err != nil {
				return err
			}
			return b.Put(keyVlen, raw)
		})
	}

	out := make([][]byte, n)
	err := s.db.View(func(tx *bolt.Tx) error {
		b, _, err := datasetBucket(tx, path)
		if err != nil {
			return err
		}
		cur, err := loadVlen(b, meta)
		if err != nil {
			return err
		}
		chunk.CopyElems(out, count, zeros, cur, meta.Info.Dims, offset, count)
		return nil
	})
	if err != nil {
		return err
	}

	s.leaseMu.Lock()
	s.nextLease++
	lease := s.nextLease
	s.leases[lease] = out
	s.leaseMu.Unlock()

	buf.Strings = out
	buf.Lease = lease
	return nil
}

// loadVlen unmarshals the string table of a dataset. msgpack allocates
// fresh backing arrays, so the result is safe to keep past the
// transaction.
func loadVlen(b *bolt.Bucket, meta *objMeta) ([][]byte, error) {
	total := chunk.NumElements(meta.Info.Dims)
	v := b.Get(keyVlen)
	if v == nil {
		return make([][]byte, total), nil
	}
	var cur [][]byte
	if err := msgpack.Unmarshal(v, &cur); err != nil {
		return nil, fmt.Errorf("decoding string table: %w", err)
	}
	if uint64(len(cur)) != total {
		return nil, fmt.Errorf("string table holds %d entries, want %d", len(cur), total)
	}
	return cur, nil
}

func (s *Store) Resize(path string, dims []uint64) error {
	if err := s.check(); err != nil {
		return err
	}
	path = store.CleanPath(path)

	err := s.db.Update(func(tx *bolt.Tx) error {
		b, meta, err := datasetBucket(tx, path)
		if err != nil {
			return err
		}
		info := meta.Info
		if len(dims) != len(info.Dims) {
			return fmt.Errorf("new shape has rank %d, dataset has rank %d", len(dims), len(info.Dims))
		}
		for i, d := range dims {
			if info.MaxDims[i] != store.Unlimited && d > info.MaxDims[i] {
				return fmt.Errorf("extent %d exceeds maximum %d on axis %d", d, info.MaxDims[i], i)
			}
		}

		box := make([]uint64, len(dims))
		for i := range box {
			box[i] = min64(dims[i], info.Dims[i])
		}
		zeros := make([]uint64, len(dims))
		total := chunk.NumElements(dims)

		switch {
		case info.Type.IsVariable():
			cur, err := loadVlen(b, meta)
			if err != nil {
				return err
			}
			next := make([][]byte, total)
			chunk.CopyElems(next, dims, zeros, cur, info.Dims, zeros, box)
			raw, err := msgpack.Marshal(next)
			if err != nil {
				return err
			}
			if err := b.Put(keyVlen, raw); err != nil {
				return err
			}

		case len(meta.Params.ChunkDims) > 0:
			if err := resizeChunks(b, meta, dims); err != nil {
				return err
			}

		default:
			if v := b.Get(keyData); v != nil {
				elemSize := int(info.Type.Size)
				next := make([]byte, total*uint64(elemSize))
				chunk.CopyRegion(next, dims, zeros, v, info.Dims, zeros, box, elemSize)
				if err := b.Put(keyData, next); err != nil {
					return err
				}
			}
		}

		meta.Info.Dims = append([]uint64(nil), dims...)
		return putMeta(b, meta)
	})
	if err != nil {
		return fmt.Errorf("resizing %q: %w", path, mapErr(err))
	}

	s.dropCache(path)
	s.log.Debug("dataset resized", "path", path, "dims", dims)
	return nil
}

// resizeChunks drops chunks that fall wholly outside the new extents
// and zeroes the out-of-range tail of chunks crossing the boundary, so
// a later grow reads zeros there instead of stale data.
func resizeChunks(b *bolt.Bucket, meta *objMeta, newDims []uint64) error {
	info := meta.Info
	chunkDims := meta.Params.ChunkDims
	elemSize := int(info.Type.Size)

	newGrid, err := chunk.NewGrid(newDims, chunkDims)
	if err != nil {
		return err
	}
	pipe, err := filter.NewPipeline(meta.Params.Filters)
	if err != nil {
		return err
	}
	chunkBytes := int(newGrid.ChunkElems()) * elemSize
	newShape := newGrid.Shape()
	zeros := make([]uint64, len(newDims))

	rewrite := make(map[string][]byte)
	c := b.Cursor()
	for k, v := c.Seek(prefixChunk); k != nil && bytes.HasPrefix(k, prefixChunk); k, v = c.Next() {
		coords := chunkKeyCoords(k)

		outside := false
		for i := range coords {
			if coords[i] >= newShape[i] {
				outside = true
				break
			}
		}
		if outside {
			if err := c.Delete(); err != nil {
				return err
			}
			continue
		}

		// An edge chunk needs its surplus zeroed only when the valid
		// region shrank on some axis.
		needsZero := false
		validNew := make([]uint64, len(coords))
		for i := range coords {
			origin := coords[i] * chunkDims[i]
			validNew[i] = min64(newDims[i]-origin, chunkDims[i])
			validOld := min64(info.Dims[i]-origin, chunkDims[i])
			if validNew[i] < validOld {
				needsZero = true
			}
		}
		if !needsZero {
			continue
		}

		data, err := pipe.Decode(append([]byte(nil), v...))
		if err != nil {
			return fmt.Errorf("chunk %v: %w", coords, err)
		}
		if len(data) != chunkBytes {
			return fmt.Errorf("chunk %v: decoded %d bytes, want %d", coords, len(data), chunkBytes)
		}
		fresh := make([]byte, chunkBytes)
		chunk.CopyRegion(fresh, chunkDims, zeros, data, chunkDims, zeros, validNew, elemSize)
		enc, err := pipe.Encode(fresh)
		if err != nil {
			return fmt.Errorf("chunk %v: %w", coords, err)
		}
		rewrite[string(k)] = enc
	}

	// Mutating values under an open cursor is not safe; replay the
	// rewrites afterwards.
	for k, enc := range rewrite {
		if err := b.Put([]byte(k), enc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) cacheFor(path string, meta *objMeta) *chunkCache {
	capacity := meta.Params.CacheBytes
	if capacity <= 0 {
		capacity = DefaultCacheBytes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.caches == nil {
		// Closed mid-operation; hand back a throwaway cache.
		return newChunkCache(capacity)
	}
	c, ok := s.caches[path]
	if !ok {
		c = newChunkCache(capacity)
		s.caches[path] = c
	}
	return c
}

func (s *Store) dropCache(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.caches, path)
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
