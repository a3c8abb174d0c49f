package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/state"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func (app *UbiApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code, res.Log = errors.ABCIInfo(errors.ErrNotFound.Newf("path %s", req.Path), false)
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query takes the raw 20 byte address of the account.
func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) != 20 {
		res.Code, res.Log = errors.ABCIInfo(errors.ErrInvalidInput.Newf("address of %d bytes", len(req.Data)), false)
		return
	}
	a, height, err1 := q.db.FindAccount(req.Data)
	if err1 == nil && a == nil {
		err1 = errors.ErrNotFound.Newf("account %X", req.Data)
	}
	if err1 != nil {
		res.Code, res.Log = errors.ABCIInfo(err1, false)
		return
	}
	res.Value, err1 = a.MarshalJSON()
	if err1 != nil {
		res.Code, res.Log = errors.ABCIInfo(errors.Wrap(errors.ErrInternal, err1.Error()), false)
		return
	}
	res.Height = int64(height)
	return
}

// queryFunc answers a ledger query at the given height with a JSON
// serializable value.
type queryFunc func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error)

// LedgerQuerier answers from the last committed version, so a query sent
// while a block is being finalized does not see its writes.
type LedgerQuerier struct {
	db     *state.StateDB
	bank   ledger.Bank
	logger cmtlog.Logger
	query  queryFunc
}

func newLedgerQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger, query queryFunc) *LedgerQuerier {
	return &LedgerQuerier{
		db:     db,
		bank:   bank,
		logger: logger,
		query:  query,
	}
}

func (q *LedgerQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	view, height, err1 := q.db.Committed()
	if err1 != nil {
		res.Code, res.Log = errors.ABCIInfo(errors.Wrap(errors.ErrInternal, err1.Error()), false)
		return
	}
	lg := ledger.New(view, q.bank, q.logger)
	v, err1 := q.query(lg, ledger.Env{Height: height}, req.Data)
	if err1 != nil {
		q.logger.Debug("query fail", "path", req.Path, "err", err1)
		res.Code, res.Log = errors.ABCIInfo(err1, false)
		return
	}
	res.Value, err1 = json.Marshal(v)
	if err1 != nil {
		res.Code, res.Log = errors.ABCIInfo(errors.Wrap(errors.ErrInternal, err1.Error()), false)
		return
	}
	res.Height = int64(height)
	return
}

func parseProposalId(data []byte) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidInput.Newf("proposal id %q", data)
	}
	return id, nil
}

func NewParticipantQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger) *LedgerQuerier {
	return newLedgerQuerier(db, bank, logger, func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error) {
		return lg.GetParticipant(types.Identity(data))
	})
}

type TreasuryBalance struct {
	Balance uint64 `json:"balance"`
}

func NewTreasuryQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger) *LedgerQuerier {
	return newLedgerQuerier(db, bank, logger, func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error) {
		balance, err := lg.GetTreasuryBalance()
		if err != nil {
			return nil, err
		}
		return &TreasuryBalance{Balance: balance}, nil
	})
}

func NewProposalQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger) *LedgerQuerier {
	return newLedgerQuerier(db, bank, logger, func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error) {
		id, err := parseProposalId(data)
		if err != nil {
			return nil, err
		}
		return lg.GetProposal(env, id)
	})
}

// NewVoteQuerier takes "<proposal id>/<voter>".
func NewVoteQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger) *LedgerQuerier {
	return newLedgerQuerier(db, bank, logger, func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error) {
		idStr, voter, ok := strings.Cut(string(data), "/")
		if !ok || voter == "" {
			return nil, errors.ErrInvalidInput.Newf("vote key %q", data)
		}
		id, err := parseProposalId([]byte(idStr))
		if err != nil {
			return nil, err
		}
		return lg.GetVote(id, types.Identity(voter))
	})
}

func NewDistributionQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger) *LedgerQuerier {
	return newLedgerQuerier(db, bank, logger, func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error) {
		return lg.GetDistributionInfo(env)
	})
}

type Eligibility struct {
	Participant types.Identity `json:"participant"`
	Eligible    bool           `json:"eligible"`
	Reason      string         `json:"reason,omitempty"`
}

func NewEligibleQuerier(db *state.StateDB, bank ledger.Bank, logger cmtlog.Logger) *LedgerQuerier {
	return newLedgerQuerier(db, bank, logger, func(lg *ledger.Ledger, env ledger.Env, data []byte) (any, error) {
		who := types.Identity(data).Normalize()
		eligible, reason, err := lg.IsEligible(env, who)
		if err != nil {
			return nil, err
		}
		return &Eligibility{Participant: who, Eligible: eligible, Reason: reason}, nil
	})
}
