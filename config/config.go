package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const DefaultHomeName = ".ubi"

// AppConfig is the [app] section of config.toml.
type AppConfig struct {
	Home string `mapstructure:"-"`
	// Debug puts full error traces in ABCI result logs.
	Debug bool `mapstructure:"debug"`

	IndexerEnabled      bool          `mapstructure:"indexer_enabled"`
	IndexerListen       string        `mapstructure:"indexer_listen"`
	IndexerDB           string        `mapstructure:"indexer_db"`
	IndexerPollInterval time.Duration `mapstructure:"indexer_poll_interval"`
}

func DefaultAppConfig(home string) *AppConfig {
	return &AppConfig{
		Home:                home,
		IndexerEnabled:      true,
		IndexerListen:       "127.0.0.1:8088",
		IndexerDB:           "indexer.db",
		IndexerPollInterval: time.Second,
	}
}

// IndexerDBFile resolves the indexer database path against the home dir.
func (c *AppConfig) IndexerDBFile() string {
	if filepath.IsAbs(c.IndexerDB) {
		return c.IndexerDB
	}
	return filepath.Join(c.Home, "data", c.IndexerDB)
}

func (c *AppConfig) ValidateBasic() error {
	if c.IndexerEnabled {
		if c.IndexerListen == "" {
			return fmt.Errorf("indexer_listen is required when the indexer is enabled")
		}
		if c.IndexerPollInterval <= 0 {
			return fmt.Errorf("indexer_poll_interval must be positive")
		}
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *AppConfig `mapstructure:"app"`
}

func DefaultHome() string {
	return os.ExpandEnv("$HOME/" + DefaultHomeName)
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = DefaultHome()
	}
	cfg := &Config{
		DefaultUbiCometConfig(),
		DefaultAppConfig(home),
	}
	cfg.SetRoot(home)
	_ = os.MkdirAll(filepath.Join(home, "config"), DefaultDirPerm)
	_ = os.MkdirAll(filepath.Join(home, "data"), DefaultDirPerm)
	return cfg
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultUbiCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
