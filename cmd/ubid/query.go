package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url string
}

// newQueryCmd builds a command that sends the data built from its arguments
// to the given query path and prints the JSON answer.
func newQueryCmd(use, short, path string, args cobra.PositionalArgs, data func(args []string) ([]byte, error)) *cobra.Command {
	var qArgs queryArguments
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			dat, err := data(args)
			if err != nil {
				return err
			}
			cli, err := newClient(qArgs.Url)
			if err != nil {
				return err
			}
			res, err := abciQuery(context.Background(), cli, path, dat)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	urlFlag(cmd, &qArgs.Url)
	return cmd
}

func noData([]string) ([]byte, error) {
	return nil, nil
}

func firstArg(args []string) ([]byte, error) {
	return []byte(args[0]), nil
}

func queryCmds() []*cobra.Command {
	return []*cobra.Command{
		newQueryCmd("account [address]", "Show the custody account of an address", "/account/", cobra.ExactArgs(1),
			func(args []string) ([]byte, error) {
				addr, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
				if err != nil {
					return nil, fmt.Errorf("invalid address:%v", args[0])
				}
				return addr, nil
			}),
		newQueryCmd("participant [address]", "Show the membership record of an address", "/participant/", cobra.ExactArgs(1), firstArg),
		newQueryCmd("treasury", "Show the treasury balance", "/treasury/", cobra.NoArgs, noData),
		newQueryCmd("proposal [id]", "Show a governance proposal", "/proposal/", cobra.ExactArgs(1), firstArg),
		newQueryCmd("ballot [proposal id] [voter]", "Show the vote of a voter on a proposal", "/vote/", cobra.ExactArgs(2),
			func(args []string) ([]byte, error) {
				return []byte(args[0] + "/" + args[1]), nil
			}),
		newQueryCmd("distribution", "Show the distribution parameters and counters", "/distribution/", cobra.NoArgs, noData),
		newQueryCmd("eligible [address]", "Tell whether an address can claim now", "/eligible/", cobra.ExactArgs(1), firstArg),
	}
}
