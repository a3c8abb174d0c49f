package handler

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func NewSubmitProposalTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "proposalTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		ptx, err := tx.Payload[tx.SubmitProposalTx](btx)
		if err != nil {
			return nil, err
		}
		event, err := lg.SubmitProposal(env, btx.Sender(), ptx.ProposalType, ptx.Value)
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventProposal(event)}, nil
	})
}

func NewVoteTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "voteTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		vtx, err := tx.Payload[tx.VoteTx](btx)
		if err != nil {
			return nil, err
		}
		event, err := lg.Vote(env, btx.Sender(), vtx.Proposal, vtx.InFavor)
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventVote(event)}, nil
	})
}

func NewCloseProposalTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "closeProposalTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		ctx, err := tx.Payload[tx.CloseProposalTx](btx)
		if err != nil {
			return nil, err
		}
		event, err := lg.CloseProposal(env, btx.Sender(), ctx.Proposal)
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventCloseProposal(event)}, nil
	})
}

func NewExecuteProposalTxHandler(logger cmtlog.Logger) TxHandler {
	return newOpHandler(logger, "executeProposalTx", func(lg *ledger.Ledger, env ledger.Env, btx *tx.Tx) ([]abcitypes.Event, error) {
		etx, err := tx.Payload[tx.ExecuteProposalTx](btx)
		if err != nil {
			return nil, err
		}
		event, err := lg.ExecuteProposal(env, btx.Sender(), etx.Proposal)
		if err != nil {
			return nil, err
		}
		return []abcitypes.Event{types.EncodeEventExecuteProposal(event)}, nil
	})
}
