// Package ledger implements the membership registry, the distribution engine
// and the governance engine of the UBI chain.
//
// Every mutating operation runs under one lock against a buffered view of the
// store and is written back only when it succeeds, so a failed call never
// leaves partial state behind.
package ledger

import (
	"sync"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// Env carries the host values of the call being executed.
type Env struct {
	Height uint64
}

// Bank moves funds between custody accounts. Transfers are applied to the
// given store so that they are discarded together with a failed call.
type Bank interface {
	Balance(db store.ReadOnlyKVStore, who types.Identity) (uint64, error)
	Transfer(db store.KVStore, amount uint64, from, to types.Identity) error
}

type Ledger struct {
	mtx sync.RWMutex

	db     store.CacheableKVStore
	bank   Bank
	logger cmtlog.Logger
}

func New(db store.CacheableKVStore, bank Bank, logger cmtlog.Logger) *Ledger {
	return &Ledger{
		db:     db,
		bank:   bank,
		logger: logger.With("module", "ledger"),
	}
}

// apply runs fn against a fresh cache of the ledger store and writes the
// cache back only if fn succeeds.
func (l *Ledger) apply(fn func(db store.KVStore) error) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	cache := l.db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrInternal, err.Error())
	}
	return nil
}

func (l *Ledger) view(fn func(db store.ReadOnlyKVStore) error) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return fn(l.db)
}

// InitGenesis stores the configuration and the initial treasury. The
// treasury custody account must already hold the initial treasury balance.
func (l *Ledger) InitGenesis(g *types.AppGenesis) error {
	return l.apply(func(db store.KVStore) error {
		if has, err := db.Has(KeyConfig); err != nil {
			return errors.Wrap(errors.ErrInternal, err.Error())
		} else if has {
			return errors.ErrInvalidInput.New("ledger already initialized")
		}
		custody, err := l.bank.Balance(db, types.TreasuryAddress)
		if err != nil {
			return err
		}
		if custody < g.Treasury {
			return errors.ErrInsufficientFunds.Newf("treasury custody holds %d, genesis needs %d", custody, g.Treasury)
		}
		cfg := &types.LedgerConfig{
			Owner:            g.Owner.Normalize(),
			TreasuryAddress:  types.TreasuryAddress,
			VotingPeriod:     g.VotingPeriod,
			MaxProposalValue: g.MaxProposalValue,
		}
		if err := save(db, KeyConfig, cfg); err != nil {
			return err
		}
		tr := &types.Treasury{
			Balance:              g.Treasury,
			DistributionAmount:   g.DistributionAmount,
			DistributionInterval: g.DistributionInterval,
			MinimumBalance:       g.MinimumBalance,
		}
		l.logger.Info("ledger genesis", "owner", cfg.Owner, "treasury", tr.Balance)
		return save(db, KeyTreasury, tr)
	})
}

func isOwner(cfg *types.LedgerConfig, who types.Identity) bool {
	return cfg.Owner != "" && cfg.Owner == who
}

func addUint64(a, b uint64) (uint64, error) {
	c := a + b
	if c < a {
		return 0, errors.ErrOverflow.Newf("%d + %d", a, b)
	}
	return c, nil
}
