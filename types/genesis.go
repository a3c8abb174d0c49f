package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/tmhash"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

const UbiModuleName = "ubi"
const DefaultPower = 1000

const (
	DefaultDistributionAmount   uint64 = 1_000_000
	DefaultDistributionInterval uint64 = 144
	DefaultMinimumBalance       uint64 = 0
	DefaultVotingPeriod         uint64 = 1_008
	DefaultMaxProposalValue     uint64 = 1_000_000_000_000
)

// TreasuryAddress is the custody account holding the pooled funds. Nobody
// holds its key.
var TreasuryAddress = Identity(crypto.Address(tmhash.SumTruncated([]byte(UbiModuleName + "/treasury"))).String())

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

type GenesisAccount struct {
	Address Identity `json:"address"`
	Balance uint64   `json:"balance"`
}

// AppGenesis is the app_state section of the genesis file.
type AppGenesis struct {
	Owner                Identity         `json:"owner"`
	Treasury             uint64           `json:"treasury"`
	DistributionAmount   uint64           `json:"distribution_amount"`
	DistributionInterval uint64           `json:"distribution_interval"`
	MinimumBalance       uint64           `json:"minimum_balance"`
	VotingPeriod         uint64           `json:"voting_period"`
	MaxProposalValue     uint64           `json:"max_proposal_value"`
	Accounts             []GenesisAccount `json:"accounts"`
}

func DefaultAppGenesis(owner Identity) AppGenesis {
	return AppGenesis{
		Owner:                owner,
		DistributionAmount:   DefaultDistributionAmount,
		DistributionInterval: DefaultDistributionInterval,
		MinimumBalance:       DefaultMinimumBalance,
		VotingPeriod:         DefaultVotingPeriod,
		MaxProposalValue:     DefaultMaxProposalValue,
	}
}

func (g *AppGenesis) Validate() error {
	if g.Owner == "" {
		return errors.New("app_state must include an owner")
	}
	if g.DistributionAmount == 0 {
		return errors.New("distribution_amount must be positive")
	}
	if g.VotingPeriod == 0 {
		return errors.New("voting_period must be positive")
	}
	if g.MaxProposalValue == 0 {
		return errors.New("max_proposal_value must be positive")
	}
	seen := make(map[Identity]struct{}, len(g.Accounts))
	for _, a := range g.Accounts {
		addr := a.Address.Normalize()
		if addr == "" {
			return errors.New("genesis account without address")
		}
		if addr == TreasuryAddress {
			return errors.New("genesis account cannot be the treasury")
		}
		if _, ok := seen[addr]; ok {
			return fmt.Errorf("duplicate genesis account %s", addr)
		}
		seen[addr] = struct{}{}
	}
	return nil
}

func ParseAppGenesis(raw []byte) (*AppGenesis, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty app_state")
	}
	var g AppGenesis
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}
