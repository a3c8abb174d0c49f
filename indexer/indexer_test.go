package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	blocks map[int64][]*abci.ExecTxResult
	latest int64
}

func (f *fakeChain) Status(ctx context.Context) (*ctypes.ResultStatus, error) {
	return &ctypes.ResultStatus{SyncInfo: ctypes.SyncInfo{LatestBlockHeight: f.latest}}, nil
}

func (f *fakeChain) BlockResults(ctx context.Context, height *int64) (*ctypes.ResultBlockResults, error) {
	return &ctypes.ResultBlockResults{Height: *height, TxsResults: f.blocks[*height]}, nil
}

func okTx(events ...abci.Event) *abci.ExecTxResult {
	return &abci.ExecTxResult{Code: abci.CodeTypeOK, Events: events}
}

const (
	alice types.Identity = "A11CE0"
	bob   types.Identity = "B0B000"
	owner types.Identity = "0WNER0"
)

func newTestIndexer(t *testing.T, chain *fakeChain) *ChainIndexer {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "indexer.db"))
	require.NoError(t, err)
	c, err := newChainIndexer(cmtlog.NewNopLogger(), db, chain, 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleChain() *fakeChain {
	return &fakeChain{
		latest: 4,
		blocks: map[int64][]*abci.ExecTxResult{
			1: {
				okTx(types.EncodeEventRegister(&types.EventRegister{Participant: alice, JoinHeight: 1})),
				okTx(types.EncodeEventRegister(&types.EventRegister{Participant: bob, JoinHeight: 1})),
			},
			2: {
				okTx(types.EncodeEventVerify(&types.EventVerify{Admin: owner, Target: alice})),
				okTx(types.EncodeEventClaim(&types.EventClaim{Participant: alice, Amount: 100, TreasuryBalance: 900, ClaimsCount: 1})),
				okTx(types.EncodeEventContribute(&types.EventContribute{Contributor: bob, Amount: 50, TreasuryBalance: 950})),
				// rejected calls carry no events but must be skipped anyway
				{Code: 20, Log: "ineligible"},
			},
			3: {
				okTx(types.EncodeEventProposal(&types.EventProposal{ProposalId: 1, Proposer: alice, ProposalType: types.ProposalTypeDistributionAmount, ProposedValue: 200, ExpiryHeight: 13})),
				okTx(types.EncodeEventVote(&types.EventVote{ProposalId: 1, Voter: alice, InFavor: true, VotesFor: 1})),
				okTx(types.EncodeEventVote(&types.EventVote{ProposalId: 1, Voter: bob, InFavor: false, VotesFor: 1, VotesAgainst: 1})),
			},
			4: {
				okTx(types.EncodeEventCloseProposal(&types.EventCloseProposal{ProposalId: 1, ClosedBy: alice, Passed: false})),
				okTx(types.EncodeEventPause(&types.EventPause{Admin: owner, Paused: true})),
			},
		},
	}
}

func TestIndexerSync(t *testing.T) {
	c := newTestIndexer(t, sampleChain())
	require.NoError(t, c.sync(context.Background()))
	assert.EqualValues(t, 5, c.Height)

	participants, total, err := c.getParticipants("", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, participants, 2)

	p, _, err := c.getParticipants(alice.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.True(t, p[0].Verified)
	assert.Equal(t, owner.String(), p[0].VerifiedBy)
	assert.EqualValues(t, 1, p[0].ClaimsCount)
	assert.EqualValues(t, 100, p[0].TotalClaimed)
	assert.EqualValues(t, 2, p[0].LastClaimHeight)

	claims, total, err := c.getClaims("", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.EqualValues(t, 900, claims[0].TreasuryBalance)

	contributions, _, err := c.getContributions(bob.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, contributions, 1)
	assert.EqualValues(t, 50, contributions[0].Amount)

	proposal, err := c.getProposalById(1)
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStatusClosed.String(), proposal.Status)
	assert.False(t, proposal.Passed)
	assert.EqualValues(t, 1, proposal.VotesFor)
	assert.EqualValues(t, 1, proposal.VotesAgainst)
	assert.EqualValues(t, 4, proposal.ClosedHeight)

	votes, total, err := c.getVotes(1, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, alice.String(), votes[0].Voter)
}

func TestIndexerResumesFromSavedHeight(t *testing.T) {
	chain := sampleChain()
	dbPath := filepath.Join(t.TempDir(), "indexer.db")
	db, err := OpenDB(dbPath)
	require.NoError(t, err)
	c, err := newChainIndexer(cmtlog.NewNopLogger(), db, chain, 0)
	require.NoError(t, err)
	require.NoError(t, c.sync(context.Background()))
	require.NoError(t, c.Close())

	db, err = OpenDB(dbPath)
	require.NoError(t, err)
	c, err = newChainIndexer(cmtlog.NewNopLogger(), db, chain, 0)
	require.NoError(t, err)
	defer c.Close()
	assert.EqualValues(t, 5, c.Height)

	// nothing new: no event is applied twice
	require.NoError(t, c.sync(context.Background()))
	_, total, err := c.getClaims("", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func post(t *testing.T, s *Service, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	dat, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestIndexer(t, sampleChain())
	require.NoError(t, c.sync(context.Background()))
	s := NewService("127.0.0.1:0", c)

	t.Run("participants", func(t *testing.T) {
		w := post(t, s, "/getParticipants", GetParticipantsReq{Address: "0xa11ce0"})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetParticipantsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.EqualValues(t, 1, res.Total)
		assert.Equal(t, alice.String(), res.Participants[0].Address)
	})

	t.Run("claims", func(t *testing.T) {
		w := post(t, s, "/getClaims", GetClaimsReq{Participant: alice.String()})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetClaimsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.EqualValues(t, 1, res.Total)
	})

	t.Run("contributions", func(t *testing.T) {
		w := post(t, s, "/getContributions", GetContributionsReq{})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetContributionsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.EqualValues(t, 1, res.Total)
	})

	t.Run("proposal by id", func(t *testing.T) {
		w := post(t, s, "/getProposals", GetProposalsReq{ProposalId: 1})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetProposalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Proposals, 1)
		assert.Len(t, res.Proposals[0].Votes, 2)
	})

	t.Run("unknown proposal", func(t *testing.T) {
		w := post(t, s, "/getProposals", GetProposalsReq{ProposalId: 9})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("proposals by status", func(t *testing.T) {
		w := post(t, s, "/getProposals", GetProposalsReq{Status: types.ProposalStatusActive.String()})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetProposalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.EqualValues(t, 0, res.Total)
	})

	t.Run("votes need a filter", func(t *testing.T) {
		w := post(t, s, "/getVotes", GetVotesReq{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("votes by voter", func(t *testing.T) {
		w := post(t, s, "/getVotes", GetVotesReq{Voter: bob.String()})
		require.Equal(t, http.StatusOK, w.Code)
		var res GetVotesResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Len(t, res.Votes, 1)
		assert.False(t, res.Votes[0].InFavor)
	})
}

func TestServiceStartStop(t *testing.T) {
	cases := map[string]struct {
		stopFirst bool
	}{
		"stop while serving": {},
		"stop before start":  {stopFirst: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewService("127.0.0.1:0", nil)
			if tc.stopFirst {
				require.NoError(t, s.Stop(context.Background()))
			}
			done := make(chan error, 1)
			go func() { done <- s.Start() }()
			if !tc.stopFirst {
				require.NoError(t, s.Stop(context.Background()))
			}
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("service did not stop")
			}
		})
	}
}
