package ledger

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner types.Identity = "0WNER0"
	alice types.Identity = "A11CE0"
	bob   types.Identity = "B0B000"
	carol types.Identity = "CA201"
)

// testBank keeps balances in the ledger store. With failAfterDebit set it
// debits the sender and then fails, so callers must discard the call.
type testBank struct {
	failAfterDebit bool
}

func bankKey(who types.Identity) []byte {
	return []byte("bank:" + string(who))
}

func (b *testBank) Balance(db store.ReadOnlyKVStore, who types.Identity) (uint64, error) {
	raw, err := db.Get(bankKey(who))
	if err != nil || raw == nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (b *testBank) set(db store.KVStore, who types.Identity, amount uint64) error {
	return db.Set(bankKey(who), binary.BigEndian.AppendUint64(nil, amount))
}

func (b *testBank) Transfer(db store.KVStore, amount uint64, from, to types.Identity) error {
	fb, err := b.Balance(db, from)
	if err != nil {
		return err
	}
	if fb < amount {
		return errors.ErrInsufficientFunds.Newf("%s holds %d", from, fb)
	}
	if err := b.set(db, from, fb-amount); err != nil {
		return err
	}
	if b.failAfterDebit {
		return fmt.Errorf("transfer rejected")
	}
	tb, err := b.Balance(db, to)
	if err != nil {
		return err
	}
	return b.set(db, to, tb+amount)
}

type fixture struct {
	db     *store.MemStore
	bank   *testBank
	ledger *Ledger
}

func newFixture(t testing.TB, treasury uint64) *fixture {
	t.Helper()
	db := store.NewMemStore()
	bank := &testBank{}
	require.NoError(t, bank.set(db, types.TreasuryAddress, treasury))

	g := types.DefaultAppGenesis(owner)
	g.Treasury = treasury
	l := New(db, bank, cmtlog.NewNopLogger())
	require.NoError(t, l.InitGenesis(&g))
	return &fixture{db: db, bank: bank, ledger: l}
}

func (f *fixture) registerVerified(t testing.TB, who types.Identity, height uint64) {
	t.Helper()
	_, err := f.ledger.Register(Env{Height: height}, who)
	require.NoError(t, err)
	_, err = f.ledger.Verify(Env{Height: height}, owner, who)
	require.NoError(t, err)
}

func (f *fixture) balance(t testing.TB, who types.Identity) uint64 {
	t.Helper()
	b, err := f.bank.Balance(f.db, who)
	require.NoError(t, err)
	return b
}

func TestInitGenesis(t *testing.T) {
	f := newFixture(t, 5)

	cfg, err := f.ledger.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, owner, cfg.Owner)
	assert.Equal(t, types.TreasuryAddress, cfg.TreasuryAddress)
	assert.Equal(t, types.DefaultVotingPeriod, cfg.VotingPeriod)

	info, err := f.ledger.GetDistributionInfo(Env{Height: 3})
	require.NoError(t, err)
	assert.Equal(t, types.DistributionInfo{
		DistributionAmount:   types.DefaultDistributionAmount,
		DistributionInterval: types.DefaultDistributionInterval,
		MinimumBalance:       types.DefaultMinimumBalance,
		TreasuryBalance:      5,
		CurrentHeight:        3,
	}, *info)

	g := types.DefaultAppGenesis(owner)
	err = f.ledger.InitGenesis(&g)
	assert.True(t, errors.ErrInvalidInput.Is(err), "%+v", err)
}

func TestInitGenesisUnfundedTreasury(t *testing.T) {
	g := types.DefaultAppGenesis(owner)
	g.Treasury = 10
	l := New(store.NewMemStore(), &testBank{}, cmtlog.NewNopLogger())
	err := l.InitGenesis(&g)
	assert.True(t, errors.ErrInsufficientFunds.Is(err), "%+v", err)
}

func TestQueriesDoNotMutate(t *testing.T) {
	f := newFixture(t, 2_000_000)
	f.registerVerified(t, alice, 1)
	before := f.db.Len()
	raw, err := f.db.Get(KeyTreasury)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.ledger.GetParticipant(alice)
		require.NoError(t, err)
		_, err = f.ledger.GetTreasuryBalance()
		require.NoError(t, err)
		_, _, err = f.ledger.IsEligible(Env{Height: 9}, alice)
		require.NoError(t, err)
		_, err = f.ledger.GetDistributionInfo(Env{Height: 9})
		require.NoError(t, err)
	}

	assert.Equal(t, before, f.db.Len())
	after, err := f.db.Get(KeyTreasury)
	require.NoError(t, err)
	assert.Equal(t, raw, after)

	_, err = f.ledger.GetParticipant(bob)
	assert.True(t, errors.ErrNotFound.Is(err))
}
