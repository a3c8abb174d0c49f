package main

import (
	"encoding/hex"
	"fmt"

	"github.com/carlton-source/bitcoin-ubi-protocol/crypto"
	"github.com/spf13/cobra"
)

type pubkeyArguments struct {
	Skey string
}

var pubkeyArgs pubkeyArguments

var pubkeyCmd = &cobra.Command{
	Use:   "pubkey",
	Short: "Show the public key and the ledger identity of a key file",
	RunE:  pubkeyRun,
}

func init() {
	keyFlag(pubkeyCmd, &pubkeyArgs.Skey)
}

func pubkeyRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(keyPath(cmd, pubkeyArgs.Skey))
	if err != nil {
		return err
	}
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
	return nil
}
