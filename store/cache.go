package store

import (
	"github.com/google/btree"
)

// CacheWrap is a write buffer over a parent KVStore. Reads fall through to
// the parent for keys that were not touched. Write flushes the buffered
// operations to the parent in key order.
type CacheWrap struct {
	parent  KVStore
	pending *btree.BTreeG[kvItem]
}

var _ KVCacheWrap = (*CacheWrap)(nil)
var _ CacheableKVStore = (*CacheWrap)(nil)

func NewCacheWrap(parent KVStore) *CacheWrap {
	return &CacheWrap{
		parent:  parent,
		pending: newTree(),
	}
}

func (c *CacheWrap) Get(key []byte) ([]byte, error) {
	if it, ok := c.pending.Get(kvItem{key: key}); ok {
		if it.deleted {
			return nil, nil
		}
		return it.value, nil
	}
	return c.parent.Get(key)
}

func (c *CacheWrap) Has(key []byte) (bool, error) {
	if it, ok := c.pending.Get(kvItem{key: key}); ok {
		return !it.deleted, nil
	}
	return c.parent.Has(key)
}

func (c *CacheWrap) Set(key, value []byte) error {
	c.pending.ReplaceOrInsert(kvItem{key: copyBytes(key), value: copyBytes(value)})
	return nil
}

func (c *CacheWrap) Delete(key []byte) error {
	c.pending.ReplaceOrInsert(kvItem{key: copyBytes(key), deleted: true})
	return nil
}

// Write flushes all buffered operations to the parent and resets the buffer.
// On a parent failure the buffer is kept so the caller may retry or discard.
func (c *CacheWrap) Write() error {
	var err error
	c.pending.Ascend(func(it kvItem) bool {
		if it.deleted {
			err = c.parent.Delete(it.key)
		} else {
			err = c.parent.Set(it.key, it.value)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	c.pending.Clear(false)
	return nil
}

func (c *CacheWrap) Discard() {
	c.pending.Clear(false)
}

// CacheWrap stacks another buffer on top of this one.
func (c *CacheWrap) CacheWrap() KVCacheWrap {
	return NewCacheWrap(c)
}
