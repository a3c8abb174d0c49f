package main

import (
	"path/filepath"

	"github.com/carlton-source/bitcoin-ubi-protocol/config"
	"github.com/spf13/cobra"
)

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagTreasury  = "treasury"
	FlagOwner     = "owner"

	DefaultPrivValKeyName = "priv_validator_key.json"
)

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "ubid rpc url")
}

func keyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVarP(key, "skeyPath", "s", "", "private key path, defaults to the node key under --home")
}

// homeDir returns the --home flag or the default home.
func homeDir(cmd *cobra.Command) string {
	home, _ := cmd.Flags().GetString(FlagHome)
	if home == "" {
		home = config.DefaultHome()
	}
	return home
}

func keyPath(cmd *cobra.Command, key string) string {
	if key != "" {
		return key
	}
	return filepath.Join(homeDir(cmd), "config", DefaultPrivValKeyName)
}
