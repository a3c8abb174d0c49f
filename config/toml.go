package config

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/spf13/viper"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

var appTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("appConfigTemplate")
	if appTemplate, err = tmpl.Parse(defaultAppTemplate); err != nil {
		panic(err)
	}
}

// WriteConfigFile writes the CometBFT sections followed by the [app] section
// to configFilePath.
func WriteConfigFile(configFilePath string, config *Config) error {
	cmtconfig.WriteConfigFile(configFilePath, config.Config)

	var buffer bytes.Buffer
	if err := appTemplate.Execute(&buffer, config.App); err != nil {
		return err
	}
	f, err := os.OpenFile(configFilePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(buffer.Bytes())
	return err
}

// LoadConfig reads <home>/config/config.toml over the defaults.
func LoadConfig(home string) (*Config, error) {
	cfg := DefaultConfig(home)
	v := viper.New()
	v.SetConfigFile(filepath.Join(cfg.RootDir, "config", "config.toml"))
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.SetRoot(cfg.RootDir)
	cfg.App.Home = cfg.RootDir
	if err := cfg.ValidateBasic(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in AppConfig.
const defaultAppTemplate = `
#######################################################
###              UBI App Configuration              ###
#######################################################
[app]

# Put full error traces in transaction result logs
debug = {{ .Debug }}

# Index ledger events into a local database and serve them over HTTP
indexer_enabled = {{ .IndexerEnabled }}

# Listen address of the indexer API
indexer_listen = "{{ .IndexerListen }}"

# Indexer database, relative to the data directory
indexer_db = "{{ .IndexerDB }}"

# How often the indexer polls for new blocks
indexer_poll_interval = "{{ .IndexerPollInterval }}"
`
