package app

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/carlton-source/bitcoin-ubi-protocol/config"
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/state"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainId = "ubi-test"

type signer struct {
	key   ed25519.PrivKey
	nonce uint64
}

func newSigner() *signer {
	return &signer{key: ed25519.GenPrivKey()}
}

func (s *signer) id() types.Identity {
	return types.Identity(s.key.PubKey().Address().String())
}

// sign builds a transaction with an explicit nonce.
func (s *signer) sign(t *testing.T, nonce uint64, tp tx.TxType, payload any) []byte {
	t.Helper()
	btx := &tx.Tx{Type: tp, Nonce: nonce, PubKey: s.key.PubKey().Bytes(), Tx: payload}
	dat, err := btx.SigData([]byte(testChainId))
	require.NoError(t, err)
	btx.Sig, err = s.key.Sign(dat)
	require.NoError(t, err)
	raw, err := tx.MarshalTx(btx)
	require.NoError(t, err)
	return raw
}

// next signs with the signer's next nonce.
func (s *signer) next(t *testing.T, tp tx.TxType, payload any) []byte {
	raw := s.sign(t, s.nonce, tp, payload)
	s.nonce++
	return raw
}

func newTestApp(t *testing.T, owner types.Identity, treasury uint64) *UbiApp {
	t.Helper()
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	app := newUbiApp(config.DefaultAppConfig(t.TempDir()), db, cmtlog.NewNopLogger())
	initChain(t, app, owner, treasury)
	return app
}

func initChain(t *testing.T, app *UbiApp, owner types.Identity, treasury uint64) {
	t.Helper()
	g := types.DefaultAppGenesis(owner)
	g.Treasury = treasury
	appState, err := json.Marshal(g)
	require.NoError(t, err)
	res, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		ChainId:       testChainId,
		AppStateBytes: appState,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AppHash)
}

// block runs one full block and returns the tx results.
func block(t *testing.T, app *UbiApp, height int64, txs ...[]byte) []*abcitypes.ExecTxResult {
	t.Helper()
	ctx := context.Background()
	pres, err := app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: height, Txs: txs})
	require.NoError(t, err)
	require.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, pres.Status)

	fres, err := app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{Height: height, Txs: txs})
	require.NoError(t, err)
	_, err = app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)
	assert.Equal(t, app.db.Hash().Bytes(), fres.AppHash)
	return fres.TxResults
}

func query(t *testing.T, app *UbiApp, path string, data []byte, out any) uint32 {
	t.Helper()
	res, err := app.Query(context.Background(), &abcitypes.RequestQuery{Path: path, Data: data})
	require.NoError(t, err)
	if res.Code == errors.SuccessABCICode && out != nil {
		require.NoError(t, json.Unmarshal(res.Value, out))
	}
	return res.Code
}

func TestUbiAppDistributionFlow(t *testing.T) {
	owner, alice := newSigner(), newSigner()
	app := newTestApp(t, owner.id(), 5*types.DefaultDistributionAmount)

	res := block(t, app, 1,
		alice.next(t, tx.TxTypeRegister, &tx.RegisterTx{}),
		owner.next(t, tx.TxTypeVerify, &tx.VerifyTx{Target: alice.id()}),
	)
	for _, r := range res {
		require.Equal(t, errors.SuccessABCICode, r.Code, r.Log)
	}

	res = block(t, app, 2, alice.next(t, tx.TxTypeClaim, &tx.ClaimTx{}))
	require.Equal(t, errors.SuccessABCICode, res[0].Code, res[0].Log)
	require.Len(t, res[0].Events, 1)
	claim := types.DecodeEventClaim(res[0].Events[0])
	require.NotNil(t, claim)
	assert.Equal(t, types.DefaultDistributionAmount, claim.Amount)
	assert.Equal(t, 4*types.DefaultDistributionAmount, claim.TreasuryBalance)

	var p types.Participant
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/participant", []byte(alice.id()), &p))
	assert.True(t, p.Verified)
	assert.EqualValues(t, 2, p.LastClaimHeight)
	assert.Equal(t, types.DefaultDistributionAmount, p.TotalClaimed)

	var tb TreasuryBalance
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/treasury/", nil, &tb))
	assert.Equal(t, 4*types.DefaultDistributionAmount, tb.Balance)

	var acnt state.Account
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/account/", alice.key.PubKey().Address(), &acnt))
	assert.Equal(t, types.DefaultDistributionAmount, acnt.Balance)
	assert.EqualValues(t, 2, acnt.Nonce)

	// a second claim inside the interval is rejected but still uses the nonce
	res = block(t, app, 3, alice.next(t, tx.TxTypeClaim, &tx.ClaimTx{}))
	assert.Equal(t, errors.ErrIneligible.ABCICode(), res[0].Code)
	var el Eligibility
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/eligible/", []byte(alice.id()), &el))
	assert.False(t, el.Eligible)
	assert.NotEmpty(t, el.Reason)

	res = block(t, app, 4, alice.next(t, tx.TxTypeContribute, &tx.ContributeTx{}))
	require.Equal(t, errors.SuccessABCICode, res[0].Code, res[0].Log)
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/treasury/", nil, &tb))
	assert.Equal(t, 5*types.DefaultDistributionAmount, tb.Balance)

	var info types.DistributionInfo
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/distribution/", nil, &info))
	assert.EqualValues(t, 1, info.ParticipantCount)
	assert.EqualValues(t, 4, info.CurrentHeight)

	ires, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, ires.LastBlockHeight)
	assert.Equal(t, app.db.Hash().Bytes(), ires.LastBlockAppHash)
}

func TestUbiAppGovernanceFlow(t *testing.T) {
	owner, alice, bob := newSigner(), newSigner(), newSigner()
	app := newTestApp(t, owner.id(), 5*types.DefaultDistributionAmount)

	block(t, app, 1,
		alice.next(t, tx.TxTypeRegister, &tx.RegisterTx{}),
		bob.next(t, tx.TxTypeRegister, &tx.RegisterTx{}),
		alice.next(t, tx.TxTypeSubmitProposal, &tx.SubmitProposalTx{ProposalType: types.ProposalTypeDistributionAmount, Value: 42}),
	)
	res := block(t, app, 2,
		alice.next(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, InFavor: true}),
		bob.next(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, InFavor: true}),
		bob.next(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, InFavor: false}),
	)
	assert.Equal(t, errors.SuccessABCICode, res[0].Code, res[0].Log)
	assert.Equal(t, errors.SuccessABCICode, res[1].Code, res[1].Log)
	assert.Equal(t, errors.ErrAlreadyVoted.ABCICode(), res[2].Code)

	var vote types.VoteRecord
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/vote/", []byte("1/"+string(bob.id())), &vote))
	assert.True(t, vote.InFavor)

	res = block(t, app, 3,
		alice.next(t, tx.TxTypeCloseProposal, &tx.CloseProposalTx{Proposal: 1}),
		owner.next(t, tx.TxTypeExecuteProposal, &tx.ExecuteProposalTx{Proposal: 1}),
	)
	for _, r := range res {
		require.Equal(t, errors.SuccessABCICode, r.Code, r.Log)
	}

	var proposal types.Proposal
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/proposal/", []byte("1"), &proposal))
	assert.Equal(t, types.ProposalStatusClosed, proposal.Status)
	assert.True(t, proposal.Passed)
	assert.True(t, proposal.Executed)
	assert.EqualValues(t, 2, proposal.VotesFor)

	var info types.DistributionInfo
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/distribution/", nil, &info))
	assert.EqualValues(t, 42, info.DistributionAmount)

	assert.Equal(t, errors.ErrUnknownProposal.ABCICode(), query(t, app, "/proposal/", []byte("7"), nil))
	assert.Equal(t, errors.ErrInvalidInput.ABCICode(), query(t, app, "/proposal/", []byte("x"), nil))
	assert.Equal(t, errors.ErrNotFound.ABCICode(), query(t, app, "/nothing/", nil, nil))
}

func TestUbiAppCheckTx(t *testing.T) {
	owner, alice, mallory, eve := newSigner(), newSigner(), newSigner(), newSigner()
	app := newTestApp(t, owner.id(), types.DefaultDistributionAmount)
	ctx := context.Background()

	forged := alice.sign(t, 0, tx.TxTypeRegister, &tx.RegisterTx{})
	var btx tx.Tx
	require.NoError(t, json.Unmarshal(forged, &btx))
	btx.PubKey = eve.key.PubKey().Bytes()
	forged, err := tx.MarshalTx(&btx)
	require.NoError(t, err)

	cases := map[string]struct {
		tx   []byte
		code uint32
	}{
		"garbage":         {[]byte("not a tx"), errors.ErrUnsupportedTx.ABCICode()},
		"bad signature":   {forged, errors.ErrInvalidSignature.ABCICode()},
		"pause not owner": {alice.sign(t, 0, tx.TxTypePause, &tx.PauseTx{}), errors.ErrNotOwner.ABCICode()},
		"claim unknown":   {mallory.sign(t, 0, tx.TxTypeClaim, &tx.ClaimTx{}), errors.ErrNotRegistered.ABCICode()},
		"future nonce":    {owner.sign(t, 3, tx.TxTypePause, &tx.PauseTx{}), errors.SuccessABCICode},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			res, err := app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: tc.tx})
			require.NoError(t, err)
			assert.Equal(t, tc.code, res.Code, res.Log)
		})
	}

	// CheckTx does not leak into the block state
	block(t, app, 1, alice.next(t, tx.TxTypeRegister, &tx.RegisterTx{}))
	res, err := app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: alice.sign(t, 0, tx.TxTypeRegister, &tx.RegisterTx{})})
	require.NoError(t, err)
	assert.Equal(t, errors.ErrInvalidNonce.ABCICode(), res.Code)
}

func TestUbiAppProposalHandling(t *testing.T) {
	owner, alice, mallory := newSigner(), newSigner(), newSigner()
	app := newTestApp(t, owner.id(), types.DefaultDistributionAmount)
	ctx := context.Background()

	good := alice.sign(t, 0, tx.TxTypeRegister, &tx.RegisterTx{})
	rejected := mallory.sign(t, 0, tx.TxTypeClaim, &tx.ClaimTx{})
	stale := alice.sign(t, 0, tx.TxTypeRegister, &tx.RegisterTx{})

	pres, err := app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		Height:     1,
		MaxTxBytes: 1 << 20,
		Txs:        [][]byte{good, rejected, stale, []byte("junk")},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{good}, pres.Txs)

	limited, err := app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		Height:     1,
		MaxTxBytes: int64(len(good) - 1),
		Txs:        [][]byte{good},
	})
	require.NoError(t, err)
	assert.Empty(t, limited.Txs)

	proc, err := app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: 1, Txs: [][]byte{good, stale}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, proc.Status)

	proc, err = app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: 1, Txs: [][]byte{good, rejected}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)

	// nothing above touched the committed state
	var p types.Participant
	assert.Equal(t, errors.ErrNotFound.ABCICode(), query(t, app, "/participant/", []byte(alice.id()), &p))
}

func TestUbiAppReload(t *testing.T) {
	owner, alice := newSigner(), newSigner()
	cfg := config.DefaultAppConfig(t.TempDir())

	app, err := NewUbiApp(cfg, cmtlog.NewNopLogger())
	require.NoError(t, err)
	initChain(t, app, owner.id(), types.DefaultDistributionAmount)
	block(t, app, 1, alice.next(t, tx.TxTypeRegister, &tx.RegisterTx{}))
	hash := app.db.Hash()
	app.Stop()

	app, err = NewUbiApp(cfg, cmtlog.NewNopLogger())
	require.NoError(t, err)
	defer app.Stop()
	ires, err := app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, ires.LastBlockHeight)
	assert.Equal(t, hash.Bytes(), ires.LastBlockAppHash)

	var p types.Participant
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/participant/", []byte(alice.id()), &p))
	assert.True(t, p.Registered)
}

func TestUbiAppQueryBetweenFinalizeAndCommit(t *testing.T) {
	owner, alice := newSigner(), newSigner()
	app := newTestApp(t, owner.id(), types.DefaultDistributionAmount)
	ctx := context.Background()
	block(t, app, 1, alice.next(t, tx.TxTypeRegister, &tx.RegisterTx{}))

	verify := owner.next(t, tx.TxTypeVerify, &tx.VerifyTx{Target: alice.id()})
	fres, err := app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{Height: 2, Txs: [][]byte{verify}})
	require.NoError(t, err)
	require.Equal(t, errors.SuccessABCICode, fres.TxResults[0].Code, fres.TxResults[0].Log)

	var p types.Participant
	res, err := app.Query(ctx, &abcitypes.RequestQuery{Path: "/participant/", Data: []byte(alice.id())})
	require.NoError(t, err)
	require.Equal(t, errors.SuccessABCICode, res.Code, res.Log)
	assert.EqualValues(t, 1, res.Height)
	require.NoError(t, json.Unmarshal(res.Value, &p))
	assert.False(t, p.Verified)

	_, err = app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)
	require.Equal(t, errors.SuccessABCICode, query(t, app, "/participant/", []byte(alice.id()), &p))
	assert.True(t, p.Verified)
}
