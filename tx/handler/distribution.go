package handler

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func NewClaimTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "claimTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		event, err := lg.Claim(env, btx.Sender())
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventClaim(event)}, nil
	})
}

func NewContributeTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "contributeTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		event, err := lg.Contribute(env, btx.Sender())
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventContribute(event)}, nil
	})
}

func NewPauseTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "pauseTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		event, err := lg.Pause(env, btx.Sender())
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventPause(event)}, nil
	})
}

func NewUnpauseTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "unpauseTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		event, err := lg.Unpause(env, btx.Sender())
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventPause(event)}, nil
	})
}
