package state

import (
	"encoding/hex"
	"testing"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderEncoding(t *testing.T) {
	h := Header{ChainId: "ubi-test", Height: 1 << 40}
	var got Header
	require.NoError(t, got.Unmarshal(h.Marshal()))
	assert.Equal(t, h, got)

	require.Error(t, got.Unmarshal([]byte{0x0a, 0x05, 'a'}))
}

func TestBankTransfer(t *testing.T) {
	db := store.NewMemStore()
	bank := Bank{}
	require.NoError(t, bank.Mint(db, "AA", 100))

	cases := map[string]struct {
		amount  uint64
		from    types.Identity
		to      types.Identity
		wantErr *errors.Error
	}{
		"zero amount": {
			amount:  0,
			from:    "AA",
			to:      "BB",
			wantErr: errors.ErrInvalidAmount,
		},
		"unknown sender": {
			amount:  1,
			from:    "CC",
			to:      "BB",
			wantErr: errors.ErrInsufficientFunds,
		},
		"more than balance": {
			amount:  101,
			from:    "AA",
			to:      "BB",
			wantErr: errors.ErrInsufficientFunds,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := bank.Transfer(db, tc.amount, tc.from, tc.to)
			require.True(t, tc.wantErr.Is(err), "%+v", err)
		})
	}

	require.NoError(t, bank.Transfer(db, 40, "aa", "BB"))
	a, err := bank.Balance(db, "AA")
	require.NoError(t, err)
	assert.EqualValues(t, 60, a)
	b, err := bank.Balance(db, "BB")
	require.NoError(t, err)
	assert.EqualValues(t, 40, b)

	missing, err := bank.Balance(db, "DD")
	require.NoError(t, err)
	assert.Zero(t, missing)

	// indexes are handed out in creation order
	acntA, err := FindAccount(db, "AA")
	require.NoError(t, err)
	acntB, err := FindAccount(db, "BB")
	require.NoError(t, err)
	assert.EqualValues(t, StartAccountIdx, acntA.Index)
	assert.EqualValues(t, StartAccountIdx+1, acntB.Index)

	require.NoError(t, bank.Mint(db, "BB", ^uint64(0)-40))
	err = bank.Transfer(db, 1, "AA", "BB")
	assert.True(t, errors.ErrOverflow.Is(err), "%+v", err)
}

func signedTx(t *testing.T, pk ed25519.PrivKey, chainId string, nonce uint64) *tx.Tx {
	t.Helper()
	btx := &tx.Tx{Type: tx.TxTypeRegister, Nonce: nonce, PubKey: pk.PubKey().Bytes(), Tx: tx.RegisterTx{}}
	msg, err := btx.SigData([]byte(chainId))
	require.NoError(t, err)
	btx.Sig, err = pk.Sign(msg)
	require.NoError(t, err)
	return btx
}

func TestVerify(t *testing.T) {
	db := store.NewMemStore()
	pk := ed25519.GenPrivKey()

	require.NoError(t, Verify(db, "ubi", signedTx(t, pk, "ubi", 0), false))

	err := Verify(db, "other-chain", signedTx(t, pk, "ubi", 0), false)
	assert.True(t, errors.ErrInvalidSignature.Is(err), "%+v", err)

	err = Verify(db, "ubi", signedTx(t, pk, "ubi", 2), false)
	assert.True(t, errors.ErrInvalidNonce.Is(err), "%+v", err)
	require.NoError(t, Verify(db, "ubi", signedTx(t, pk, "ubi", 2), true))

	acnt, err := IncrementNonce(db, pk.PubKey().Bytes())
	require.NoError(t, err)
	assert.EqualValues(t, 1, acnt.Nonce)
	assert.Equal(t, PubKeyAddress(pk.PubKey().Bytes()), acnt.Address)

	err = Verify(db, "ubi", signedTx(t, pk, "ubi", 0), true)
	assert.True(t, errors.ErrInvalidNonce.Is(err), "%+v", err)
	require.NoError(t, Verify(db, "ubi", signedTx(t, pk, "ubi", 1), false))

	tampered := signedTx(t, pk, "ubi", 1)
	tampered.Nonce = 5
	err = Verify(db, "ubi", tampered, true)
	assert.True(t, errors.ErrInvalidSignature.Is(err), "%+v", err)

	short := signedTx(t, pk, "ubi", 1)
	short.PubKey = short.PubKey[:10]
	err = Verify(db, "ubi", short, false)
	assert.True(t, errors.ErrInvalidSignature.Is(err), "%+v", err)
}

func TestStateDBCommitAndReload(t *testing.T) {
	dir := t.TempDir()
	logger := cmtlog.NewNopLogger()

	db, err := NewStateDB(dir, logger)
	require.NoError(t, err)
	db.SetChainId("ubi-test")
	require.NoError(t, Bank{}.Mint(db.Store(), "AA", 7))

	working, err := db.Finalize(1)
	require.NoError(t, err)
	committed, err := db.Commit()
	require.NoError(t, err)
	assert.Equal(t, working, committed)
	assert.EqualValues(t, 1, db.Height())

	// writes after the commit can be dropped
	require.NoError(t, Bank{}.Mint(db.Store(), "AA", 1))
	db.Rollback()
	require.NoError(t, db.Close())

	db, err = NewStateDB(dir, logger)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, Header{ChainId: "ubi-test", Height: 1}, db.Header())
	assert.Equal(t, committed, db.Hash())

	raw, err := hex.DecodeString("AA")
	require.NoError(t, err)
	acnt, _, err := db.FindAccount(raw)
	require.NoError(t, err)
	require.NotNil(t, acnt)
	assert.EqualValues(t, 7, acnt.Balance)
}

func TestMemStateDBHashChanges(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)

	h1, err := db.Finalize(1)
	require.NoError(t, err)
	_, err = db.Commit()
	require.NoError(t, err)

	require.NoError(t, Bank{}.Mint(db.Store(), "AA", 1))
	h2, err := db.Finalize(2)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, h2, db.WorkingHash())
}

func TestCommittedHidesWorkingWrites(t *testing.T) {
	db, err := NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)

	view, height, err := db.Committed()
	require.NoError(t, err)
	assert.EqualValues(t, 0, height)
	has, err := view.Has([]byte(KeyState))
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, Bank{}.Mint(db.Store(), "AA", 7))
	_, err = db.Finalize(1)
	require.NoError(t, err)
	_, err = db.Commit()
	require.NoError(t, err)

	// finalized but not yet committed
	require.NoError(t, Bank{}.Mint(db.Store(), "AA", 5))
	_, err = db.Finalize(2)
	require.NoError(t, err)

	view, height, err = db.Committed()
	require.NoError(t, err)
	assert.EqualValues(t, 1, height)
	acnt, err := FindAccount(view, "AA")
	require.NoError(t, err)
	require.NotNil(t, acnt)
	assert.EqualValues(t, 7, acnt.Balance)

	err = view.Set([]byte("k"), []byte("v"))
	assert.True(t, errors.ErrInternal.Is(err), "%+v", err)

	_, err = db.Commit()
	require.NoError(t, err)
	view, height, err = db.Committed()
	require.NoError(t, err)
	assert.EqualValues(t, 2, height)
	acnt, err = FindAccount(view, "AA")
	require.NoError(t, err)
	assert.EqualValues(t, 12, acnt.Balance)
}
