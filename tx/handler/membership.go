package handler

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func NewRegisterTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "registerTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		event, err := lg.Register(env, btx.Sender())
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventRegister(event)}, nil
	})
}

func NewVerifyTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "verifyTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		vtx, err := tx.Payload[tx.VerifyTx](btx)
		if err != nil {
			return nil, err
		}
		event, err := lg.Verify(env, btx.Sender(), vtx.Target)
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventVerify(event)}, nil
	})
}
