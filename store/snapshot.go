package store

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/cosmos/iavl"
)

// SnapshotStore reads a saved version of an iavl tree. Writes are refused,
// and buffered writes from CacheWrap fail when flushed.
type SnapshotStore struct {
	tree *iavl.ImmutableTree
}

var _ CacheableKVStore = (*SnapshotStore)(nil)

func NewSnapshotStore(tree *iavl.ImmutableTree) *SnapshotStore {
	return &SnapshotStore{tree: tree}
}

func (s *SnapshotStore) Get(key []byte) ([]byte, error) {
	return s.tree.Get(key)
}

func (s *SnapshotStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key)
}

func (s *SnapshotStore) Set(key, value []byte) error {
	return errors.ErrInternal.Newf("snapshot of version %d is read only", s.tree.Version())
}

func (s *SnapshotStore) Delete(key []byte) error {
	return errors.ErrInternal.Newf("snapshot of version %d is read only", s.tree.Version())
}

func (s *SnapshotStore) CacheWrap() KVCacheWrap {
	return NewCacheWrap(s)
}
