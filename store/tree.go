package store

import (
	"github.com/cosmos/iavl"
)

// TreeStore exposes the working version of an iavl tree as a KVStore.
// Writes stay in the working tree until the owner saves a version.
type TreeStore struct {
	tree *iavl.MutableTree
}

var _ CacheableKVStore = (*TreeStore)(nil)

func NewTreeStore(tree *iavl.MutableTree) *TreeStore {
	return &TreeStore{tree: tree}
}

func (s *TreeStore) Get(key []byte) ([]byte, error) {
	return s.tree.Get(key)
}

func (s *TreeStore) Has(key []byte) (bool, error) {
	v, err := s.tree.Get(key)
	return v != nil, err
}

func (s *TreeStore) Set(key, value []byte) error {
	_, err := s.tree.Set(key, value)
	return err
}

func (s *TreeStore) Delete(key []byte) error {
	_, _, err := s.tree.Remove(key)
	return err
}

func (s *TreeStore) CacheWrap() KVCacheWrap {
	return NewCacheWrap(s)
}
