package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndLoadConfig(t *testing.T) {
	home := t.TempDir()
	cfg := DefaultConfig(home)
	cfg.App.IndexerListen = "127.0.0.1:9999"
	cfg.App.IndexerPollInterval = 3 * time.Second
	cfg.App.Debug = true
	cfg.Moniker = "ubi-test"
	require.NoError(t, WriteConfigFile(filepath.Join(home, "config", "config.toml"), cfg))

	loaded, err := LoadConfig(home)
	require.NoError(t, err)
	assert.Equal(t, home, loaded.RootDir)
	assert.Equal(t, "ubi-test", loaded.Moniker)
	assert.Equal(t, home, loaded.App.Home)
	assert.True(t, loaded.App.Debug)
	assert.True(t, loaded.App.IndexerEnabled)
	assert.Equal(t, "127.0.0.1:9999", loaded.App.IndexerListen)
	assert.Equal(t, 3*time.Second, loaded.App.IndexerPollInterval)
	assert.Equal(t, filepath.Join(home, "data", "indexer.db"), loaded.App.IndexerDBFile())
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
}

func TestAppConfigValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(c *AppConfig)
		ok     bool
	}{
		"defaults":           {func(c *AppConfig) {}, true},
		"indexer off":        {func(c *AppConfig) { c.IndexerEnabled = false; c.IndexerListen = "" }, true},
		"no listen address":  {func(c *AppConfig) { c.IndexerListen = "" }, false},
		"zero poll interval": {func(c *AppConfig) { c.IndexerPollInterval = 0 }, false},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			c := DefaultAppConfig("/tmp/ubi")
			tc.mutate(c)
			if tc.ok {
				assert.NoError(t, c.ValidateBasic())
			} else {
				assert.Error(t, c.ValidateBasic())
			}
		})
	}
}
