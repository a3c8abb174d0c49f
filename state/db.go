package state

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	cosmosdb "github.com/cosmos/cosmos-db"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	DBName    = "ubi"
	cacheSize = 128
)

// StateDB owns the iavl tree holding the whole application state. Writes go
// to the working tree through Store and become durable on Commit.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	ldb    dbm.DB
	tree   *iavl.MutableTree
	store  *store.TreeStore

	header  *Header
	pending *Header
	hash    common.Hash
}

// NewStateDB opens the goleveldb database under dir and loads the latest
// saved version.
func NewStateDB(dir string, logger cmtlog.Logger) (*StateDB, error) {
	ldb, err := cosmosdb.NewGoLevelDBWithOpts(DBName, dir, &opt.Options{
		BlockCacheCapacity: 16 * opt.MiB,
	})
	if err != nil {
		return nil, err
	}
	return openStateDB(dbm.NewWrapper(ldb), dir, logger)
}

// NewMemStateDB keeps the tree in memory. Used by tests and tooling.
func NewMemStateDB(logger cmtlog.Logger) (*StateDB, error) {
	return openStateDB(dbm.NewMemDB(), "", logger)
}

func openStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (*StateDB, error) {
	logger = logger.With("module", "ubidb")
	tree := iavl.NewMutableTree(ldb, cacheSize, true, newTreeLogger(logger))
	version, err := tree.Load()
	if err != nil {
		return nil, err
	}
	db := &StateDB{
		dir:    dir,
		logger: logger,
		ldb:    ldb,
		tree:   tree,
		store:  store.NewTreeStore(tree),
		header: new(Header),
	}
	if err := db.load(); err != nil {
		logger.Error("from ubidb load fail", "err", err)
		return nil, err
	}
	logger.Info("load db success", "version", version, "height", db.header.Height, "path", filepath.Join(dir, DBName+".db"))
	return db, nil
}

func (db *StateDB) load() error {
	val, err := db.tree.Get([]byte(KeyState))
	if err != nil {
		return err
	}
	if val == nil {
		return nil
	}
	if err := db.header.Unmarshal(val); err != nil {
		return err
	}
	if h := db.tree.Hash(); h != nil {
		db.hash = calcHash(h)
	}
	return nil
}

// Close releases the tree and the database under it. Closing a database the
// tree already closed is not an error.
func (db *StateDB) Close() error {
	err := db.tree.Close()
	if cerr := db.ldb.Close(); cerr != nil && !errors.Is(cerr, leveldb.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}

// Store is the working view every transaction of the current block writes to.
func (db *StateDB) Store() store.CacheableKVStore {
	return db.store
}

func (db *StateDB) Header() Header {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return *db.header
}

func (db *StateDB) Height() uint64 {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.header.Height
}

func (db *StateDB) ChainId() string {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.header.ChainId
}

func (db *StateDB) SetChainId(chainId string) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.header.ChainId = chainId
}

// Hash is the app hash of the last committed version.
func (db *StateDB) Hash() common.Hash {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.hash
}

// WorkingHash is the app hash the working tree would commit to.
func (db *StateDB) WorkingHash() common.Hash {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return calcHash(db.tree.WorkingHash())
}

// Finalize records height in the working header and returns the app hash
// the next Commit will produce.
func (db *StateDB) Finalize(height uint64) (common.Hash, error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	header := *db.header
	header.Height = height
	if _, err := db.tree.Set([]byte(KeyState), header.Marshal()); err != nil {
		return common.Hash{}, err
	}
	db.pending = &header
	return calcHash(db.tree.WorkingHash()), nil
}

// Commit saves the working tree as a new version.
func (db *StateDB) Commit() (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()

	root, ver, err := db.tree.SaveVersion()
	if err != nil {
		return
	}
	if db.pending != nil {
		db.header = db.pending
		db.pending = nil
	}
	db.hash = calcHash(root)
	db.logger.Debug("commit", "height", db.header.Height, "version", ver, "hash", db.hash)
	return db.hash, nil
}

// Rollback drops everything written to the working tree since the last
// commit.
func (db *StateDB) Rollback() {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	db.tree.Rollback()
	db.pending = nil
}

// Committed returns a read-only view of the last saved version and the
// height it was saved at. Writes of the block in progress are not visible.
func (db *StateDB) Committed() (store.CacheableKVStore, uint64, error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	version := db.tree.Version()
	if version == 0 {
		return store.NewMemStore(), 0, nil
	}
	tree, err := db.tree.GetImmutable(version)
	if err != nil {
		return nil, 0, err
	}
	return store.NewSnapshotStore(tree), db.header.Height, nil
}

// FindAccount looks addr up in the last saved version.
func (db *StateDB) FindAccount(addr []byte) (acnt *Account, height uint64, err error) {
	view, height, err := db.Committed()
	if err != nil {
		return nil, 0, err
	}
	acnt, err = FindAccount(view, AddressOf(addr))
	return
}
