package handler

import (
	"context"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TxHandler interface {
	Check(ctx context.Context, lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error)
}

// applyFunc runs one ledger operation on behalf of the signer of btx and
// returns the events it produced.
type applyFunc func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error)

// opHandler adapts a ledger operation to the ABCI results. Ledger failures
// become result codes; only internal failures are returned as errors.
type opHandler struct {
	logger cmtlog.Logger
	apply  applyFunc
}

func newOpHandler(logger cmtlog.Logger, name string, apply applyFunc) *opHandler {
	return &opHandler{
		logger: logger.With("module", name),
		apply:  apply,
	}
}

func (h *opHandler) Check(ctx context.Context, lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: errors.SuccessABCICode}
	_, err1 := h.apply(lg, env, btx)
	if err1 != nil {
		h.logger.Info("CheckTx fail", "type", btx.Type, "sender", btx.Sender(), "err", err1)
		res.Code, res.Log = errors.ABCIInfo(err1, false)
	}
	return
}

func (h *opHandler) Process(ctx context.Context, lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) (res *abcitypes.ExecTxResult, err error) {
	res = &abcitypes.ExecTxResult{Code: errors.SuccessABCICode}
	events, err1 := h.apply(lg, env, btx)
	if err1 != nil {
		res.Code, res.Log = errors.ABCIInfo(err1, false)
		if res.Code == errors.ErrInternal.ABCICode() {
			h.logger.Error("process tx fail", "type", btx.Type, "err", err1)
			return nil, err1
		}
		h.logger.Debug("process tx rejected", "type", btx.Type, "sender", btx.Sender(), "code", res.Code, "log", res.Log)
		return res, nil
	}
	res.Events = events
	return
}

// Handlers returns the handler of every supported tx type.
func Handlers(logger cmtlog.Logger) map[tx.TxType]TxHandler {
	return map[tx.TxType]TxHandler{
		tx.TxTypeRegister:        NewRegisterTxHandler(logger),
		tx.TxTypeVerify:          NewVerifyTxHandler(logger),
		tx.TxTypeClaim:           NewClaimTxHandler(logger),
		tx.TxTypeContribute:      NewContributeTxHandler(logger),
		tx.TxTypeSubmitProposal:  NewSubmitProposalTxHandler(logger),
		tx.TxTypeVote:            NewVoteTxHandler(logger),
		tx.TxTypeCloseProposal:   NewCloseProposalTxHandler(logger),
		tx.TxTypeExecuteProposal: NewExecuteProposalTxHandler(logger),
		tx.TxTypePause:           NewPauseTxHandler(logger),
		tx.TxTypeUnpause:         NewUnpauseTxHandler(logger),
	}
}
