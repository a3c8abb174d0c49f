package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	app_config "github.com/carlton-source/bitcoin-ubi-protocol/config"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	cmtos "github.com/cometbft/cometbft/libs/os"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	Owner      string          `json:"owner" yaml:"owner"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize validators's and node's configuration files. The node key
becomes the ledger owner unless --owner is given.`,
	Args: cobra.NoArgs,
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(FlagOwner, "", "ledger owner address, defaults to the node key address")
	initCmd.Flags().Uint64(FlagTreasury, 100*types.DefaultDistributionAmount, "initial treasury balance")
}

func initRun(cmd *cobra.Command, args []string) error {
	home := homeDir(cmd)
	chainID, _ := cmd.Flags().GetString(FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(FlagOverwrite)
	owner, _ := cmd.Flags().GetString(FlagOwner)
	treasury, _ := cmd.Flags().GetUint64(FlagTreasury)

	if chainID == "" {
		chainID = fmt.Sprintf("ubi-chain-%v", rand.Uint64())
	}
	appConfig := app_config.DefaultConfig(home)

	nodeID, pk, err := app_config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}

	genFile := appConfig.GenesisFile()
	if cmtos.FileExists(genFile) && !overwrite {
		return fmt.Errorf("genesis file %s already exists, use --%s to replace it", genFile, FlagOverwrite)
	}

	if owner == "" {
		owner = pk.Address().String()
	}
	appGenesis := types.DefaultAppGenesis(types.Identity(owner).Normalize())
	appGenesis.Treasury = treasury
	if err := appGenesis.Validate(); err != nil {
		return err
	}
	appState, err := json.MarshalIndent(appGenesis, "", "  ")
	if err != nil {
		return err
	}

	genesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators: []types.GenesisValidator{
			{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower},
		},
		AppState: appState,
	}
	if err = types.ExportGenesisFile(genesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file %v", err)
	}
	if err = app_config.WriteConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"), appConfig); err != nil {
		return err
	}
	return displayInfo(printInfo{
		Moniker:    appConfig.Moniker,
		ChainID:    chainID,
		NodeID:     nodeID,
		Owner:      owner,
		AppMessage: appState,
	})
}
