package app

import (
	"context"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/state"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var ErrUnexpectedTxProcess = errors.ErrInternal.New("unexpected tx process")

// parseTx decodes txDat and checks its signature and nonce against db.
func (app *UbiApp) parseTx(db store.ReadOnlyKVStore, txDat []byte, allowNonceGap bool) (btx *tx.Tx, err error) {
	btx, err = tx.UnmarshalTx(txDat)
	if err != nil {
		return
	}
	err = state.Verify(db, app.db.ChainId(), btx, allowNonceGap)
	return
}

// execTx runs one transaction against db: verification, nonce bump, ledger
// call. A rejected ledger call still consumes the nonce.
func (app *UbiApp) execTx(ctx context.Context, db store.KVStore, lg *ledger.Ledger, env ledger.Env, txDat []byte) (*abcitypes.ExecTxResult, error) {
	btx, err := app.parseTx(db, txDat, false)
	if err != nil {
		code, log := errors.ABCIInfo(err, app.cfg.Debug)
		return &abcitypes.ExecTxResult{Code: code, Log: log}, nil
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return &abcitypes.ExecTxResult{Code: errors.ErrUnsupportedTx.ABCICode(), Log: btx.Type.String()}, nil
	}
	if _, err = state.IncrementNonce(db, btx.PubKey); err != nil {
		return nil, err
	}
	return h.Process(ctx, lg, env, btx)
}

func (app *UbiApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: errors.SuccessABCICode}
	btx, err := app.parseTx(app.checkStore, check.Tx, true)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		res.Code, res.Log = errors.ABCIInfo(err, app.cfg.Debug)
		return res, nil
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code, res.Log = errors.ErrUnsupportedTx.ABCICode(), btx.Type.String()
		return res, nil
	}
	// the nonce check above tolerates gaps, so queued transactions of one
	// signer are checked in order against the same buffer
	if _, err = state.IncrementNonce(app.checkStore, btx.PubKey); err != nil {
		app.logger.Error("check tx nonce fail", "err", err)
		res.Code, res.Log = errors.ABCIInfo(err, app.cfg.Debug)
		return res, nil
	}
	env := ledger.Env{Height: app.db.Height() + 1}
	res, err = h.Check(ctx, app.checkLedger, env, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{}
		res.Code, res.Log = errors.ABCIInfo(err, app.cfg.Debug)
		err = nil
	}
	return
}

func (app *UbiApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	spec := store.NewCacheWrap(app.db.Store())
	env := ledger.Env{Height: uint64(proposal.Height)}
	var size int64
	txs := make([][]byte, 0, len(proposal.Txs))
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		tmp := store.NewCacheWrap(spec)
		result, err := app.execTx(ctx, tmp, ledger.New(tmp, app.bank, app.logger), env, stx)
		if err != nil {
			app.logger.Error("prepare tx fail", "err", err)
			continue
		}
		if result.Code != errors.SuccessABCICode {
			app.logger.Info("prepare tx rejected", "code", result.Code, "log", result.Log)
			continue
		}
		if err = tmp.Write(); err != nil {
			app.logger.Error("prepare tx write fail", "err", err)
			continue
		}
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// ProcessProposal accepts a block only when every transaction decodes and
// carries a valid signature and nonce. Ledger rejections are deterministic
// and do not invalidate the block.
func (app *UbiApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	spec := store.NewCacheWrap(app.db.Store())
	for _, stx := range proposal.Txs {
		btx, err := app.parseTx(spec, stx, false)
		if err != nil {
			app.logger.Error("proposal tx invalid", "err", err)
			return res, nil
		}
		if _, ok := app.txHdlrs[btx.Type]; !ok {
			app.logger.Error("proposal tx unsupported", "type", btx.Type)
			return res, nil
		}
		if _, err = state.IncrementNonce(spec, btx.PubKey); err != nil {
			app.logger.Error("proposal tx nonce fail", "err", err)
			return res, nil
		}
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *UbiApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	env := ledger.Env{Height: uint64(req.Height)}
	res := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		result, err := app.execTx(ctx, app.db.Store(), app.ledger, env, stx)
		if err != nil {
			app.logger.Error("unexpected process tx fail", "index", i, "err", err)
			app.db.Rollback()
			return nil, ErrUnexpectedTxProcess
		}
		res[i] = result
	}
	h, err := app.db.Finalize(uint64(req.Height))
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: res,
		AppHash:   h.Bytes(),
	}, nil
}

func (app *UbiApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	h, err := app.db.Commit()
	if err != nil {
		return nil, err
	}
	app.resetCheckState()
	app.logger.Info("Commit", "height", app.db.Height(), "appHash", h)
	return &abcitypes.ResponseCommit{}, nil
}
