// Package store defines the key-value contract the ledger runs against and
// the implementations used by the node and the tests.
package store

// ReadOnlyKVStore is the read half of the key-value contract.
// Get returns nil for a missing key.
type ReadOnlyKVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// KVStore is the key-value map every ledger operation reads and writes.
type KVStore interface {
	ReadOnlyKVStore
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVCacheWrap buffers writes over a parent store. Nothing reaches the parent
// until Write is called.
type KVCacheWrap interface {
	KVStore
	Write() error
	Discard()
}

// CacheableKVStore can produce a buffered view of itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}
