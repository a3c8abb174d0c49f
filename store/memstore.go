package store

import (
	"bytes"

	"github.com/google/btree"
)

type kvItem struct {
	key   []byte
	value []byte
	// deleted marks a pending delete inside a cache.
	deleted bool
}

func lessItem(a, b kvItem) bool {
	return bytes.Compare(a.key, b.key) < 0
}

func newTree() *btree.BTreeG[kvItem] {
	return btree.NewG[kvItem](32, lessItem)
}

// MemStore is an in-memory KVStore ordered by key.
type MemStore struct {
	tree *btree.BTreeG[kvItem]
}

var _ CacheableKVStore = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{tree: newTree()}
}

func (s *MemStore) Get(key []byte) ([]byte, error) {
	it, ok := s.tree.Get(kvItem{key: key})
	if !ok {
		return nil, nil
	}
	return it.value, nil
}

func (s *MemStore) Has(key []byte) (bool, error) {
	return s.tree.Has(kvItem{key: key}), nil
}

func (s *MemStore) Set(key, value []byte) error {
	s.tree.ReplaceOrInsert(kvItem{key: copyBytes(key), value: copyBytes(value)})
	return nil
}

func (s *MemStore) Delete(key []byte) error {
	s.tree.Delete(kvItem{key: key})
	return nil
}

func (s *MemStore) Len() int {
	return s.tree.Len()
}

func (s *MemStore) CacheWrap() KVCacheWrap {
	return NewCacheWrap(s)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
