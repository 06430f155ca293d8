package boltstore

import (
	"container/list"
	"sync"
)

// chunkCache is a byte-bounded LRU of decoded chunks for one dataset.
// Cached slices are shared with readers and must be treated as
// read-only; writers replace entries instead of mutating them.
type chunkCache struct {
	mu        sync.Mutex
	capacity  int
	size      int
	items     map[uint64]*list.Element
	evictList *list.List
}

type cacheEntry struct {
	index uint64
	data  []byte
}

func newChunkCache(capacity int) *chunkCache {
	return &chunkCache{
		capacity:  capacity,
		items:     make(map[uint64]*list.Element),
		evictList: list.New(),
	}
}

func (c *chunkCache) get(index uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.items[index]
	if !ok {
		return nil, false
	}
	c.evictList.MoveToFront(ent)
	return ent.Value.(*cacheEntry).data, true
}

func (c *chunkCache) put(index uint64, data []byte) {
	if len(data) > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[index]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*cacheEntry)
		c.size += len(data) - len(e.data)
		e.data = data
	} else {
		ent := c.evictList.PushFront(&cacheEntry{index: index, data: data})
		c.items[index] = ent
		c.size += len(data)
	}

	for c.size > c.capacity {
		tail := c.evictList.Back()
		if tail == nil {
			break
		}
		e := tail.Value.(*cacheEntry)
		c.evictList.Remove(tail)
		delete(c.items, e.index)
		c.size -= len(e.data)
	}
}
