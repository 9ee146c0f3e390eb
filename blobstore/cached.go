package blobstore

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// Cached wraps a Store with a byte-bounded LRU over whole blobs. Reads are
// served from the cache when possible; writes go through to the inner store
// and refresh the cached value.
type Cached struct {
	inner    Store
	capacity int64

	mu        sync.Mutex
	size      int64
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key   string
	value []byte
}

// NewCached creates a read-through cache over inner with the given capacity
// in bytes.
func NewCached(inner Store, capacity int64) *Cached {
	return &Cached{
		inner:     inner,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Put writes through to the inner store and refreshes the cache.
func (c *Cached) Put(ctx context.Context, key string, data []byte) error {
	if err := c.inner.Put(ctx, key, data); err != nil {
		return err
	}
	c.set(key, data)
	return nil
}

// Get serves from cache when possible, falling back to the inner store.
func (c *Cached) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.get(key); ok {
		return data, nil
	}
	data, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	c.set(key, data)
	return data, nil
}

// Delete removes the blob from the inner store and the cache.
func (c *Cached) Delete(ctx context.Context, key string) error {
	if err := c.inner.Delete(ctx, key); err != nil {
		return err
	}
	c.mu.Lock()
	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
	c.mu.Unlock()
	return nil
}

// List delegates to the inner store.
func (c *Cached) List(ctx context.Context, prefix string) ([]string, error) {
	return c.inner.List(ctx, prefix)
}

// Stats returns cache hit and miss counts.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current cached byte count.
func (c *Cached) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Cached) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*cacheEntry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

func (c *Cached) set(key string, data []byte) {
	itemSize := int64(len(data))
	if itemSize > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		old := ent.Value.(*cacheEntry)
		c.size += itemSize - int64(len(old.value))
		old.value = data
		c.evict()
		return
	}

	for c.size+itemSize > c.capacity {
		back := c.evictList.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}

	element := c.evictList.PushFront(&cacheEntry{key: key, value: data})
	c.items[key] = element
	c.size += itemSize
}

func (c *Cached) evict() {
	for c.size > c.capacity {
		back := c.evictList.Back()
		if back == nil {
			return
		}
		c.removeElement(back)
	}
}

func (c *Cached) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*cacheEntry)
	delete(c.items, ent.key)
	c.size -= int64(len(ent.value))
}
