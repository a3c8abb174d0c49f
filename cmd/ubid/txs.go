package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	"github.com/spf13/cobra"
)

type txArguments struct {
	Url  string
	Skey string
}

// newTxCmd builds a command that signs the payload built from its arguments
// and broadcasts it.
func newTxCmd(use, short string, tp tx.TxType, args cobra.PositionalArgs, payload func(args []string) (any, error)) *cobra.Command {
	var tArgs txArguments
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := payload(args)
			if err != nil {
				return err
			}
			return sendTx(context.Background(), tArgs.Url, keyPath(cmd, tArgs.Skey), tp, p)
		},
	}
	urlFlag(cmd, &tArgs.Url)
	keyFlag(cmd, &tArgs.Skey)
	return cmd
}

func parseId(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id:%v", s)
	}
	return id, nil
}

func txCmds() []*cobra.Command {
	return []*cobra.Command{
		newTxCmd("register", "Register the signer as a participant", tx.TxTypeRegister, cobra.NoArgs,
			func([]string) (any, error) { return &tx.RegisterTx{}, nil }),
		newTxCmd("verify [address]", "Verify a registered participant (owner only)", tx.TxTypeVerify, cobra.ExactArgs(1),
			func(args []string) (any, error) {
				return &tx.VerifyTx{Target: types.Identity(args[0]).Normalize()}, nil
			}),
		newTxCmd("claim", "Claim the distribution amount", tx.TxTypeClaim, cobra.NoArgs,
			func([]string) (any, error) { return &tx.ClaimTx{}, nil }),
		newTxCmd("contribute", "Move the signer's balance into the treasury", tx.TxTypeContribute, cobra.NoArgs,
			func([]string) (any, error) { return &tx.ContributeTx{}, nil }),
		newTxCmd("propose [parameter] [value]", "Propose a new value for distribution-amount, distribution-interval or minimum-balance", tx.TxTypeSubmitProposal, cobra.ExactArgs(2),
			func(args []string) (any, error) {
				tp := types.ParseProposalType(args[0])
				if tp == types.ProposalTypeUnknown {
					return nil, fmt.Errorf("unknown parameter:%v", args[0])
				}
				value, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid value:%v", args[1])
				}
				return &tx.SubmitProposalTx{ProposalType: tp, Value: value}, nil
			}),
		newTxCmd("vote [proposal id] [yes|no]", "Vote on an active proposal", tx.TxTypeVote, cobra.ExactArgs(2),
			func(args []string) (any, error) {
				id, err := parseId(args[0])
				if err != nil {
					return nil, err
				}
				var inFavor bool
				switch args[1] {
				case "yes", "y", "true":
					inFavor = true
				case "no", "n", "false":
				default:
					return nil, fmt.Errorf("vote must be yes or no, got %v", args[1])
				}
				return &tx.VoteTx{Proposal: id, InFavor: inFavor}, nil
			}),
		newTxCmd("close [proposal id]", "Close a proposal and record whether it passed", tx.TxTypeCloseProposal, cobra.ExactArgs(1),
			func(args []string) (any, error) {
				id, err := parseId(args[0])
				if err != nil {
					return nil, err
				}
				return &tx.CloseProposalTx{Proposal: id}, nil
			}),
		newTxCmd("execute [proposal id]", "Apply a passed proposal (owner only)", tx.TxTypeExecuteProposal, cobra.ExactArgs(1),
			func(args []string) (any, error) {
				id, err := parseId(args[0])
				if err != nil {
					return nil, err
				}
				return &tx.ExecuteProposalTx{Proposal: id}, nil
			}),
		newTxCmd("pause", "Stop claims (owner only)", tx.TxTypePause, cobra.NoArgs,
			func([]string) (any, error) { return &tx.PauseTx{}, nil }),
		newTxCmd("unpause", "Resume claims (owner only)", tx.TxTypeUnpause, cobra.NoArgs,
			func([]string) (any, error) { return &tx.UnpauseTx{}, nil }),
	}
}
