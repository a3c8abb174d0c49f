package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlton-source/bitcoin-ubi-protocol/app"
	app_config "github.com/carlton-source/bitcoin-ubi-protocol/config"
	"github.com/carlton-source/bitcoin-ubi-protocol/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ubid",
	Short: "ubid runs the universal basic income chain",
	Long: `A CometBFT chain that pays a periodic distribution from a pooled
treasury to verified participants, with parameters set by on-chain votes.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP(FlagHome, "d", "", "home directory")
}

func run(cmd *cobra.Command, args []string) {
	home := homeDir(cmd)
	appConfig, err := app_config.LoadConfig(home)
	if err != nil {
		log.Fatalf("Reading config: %v", err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	app, err := app.NewUbiApp(appConfig.App, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	app.Start(node.BlockStore())
	err = node.Start()
	if err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var svc *indexer.Service
	var idx *indexer.ChainIndexer
	if appConfig.App.IndexerEnabled {
		rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
		if err != nil {
			log.Fatalf("new parse url err %s", err.Error())
		}
		rpcUrl.Scheme = "http"
		idx, err = indexer.NewChainIndexer(logger, appConfig.App.IndexerDBFile(), rpcUrl.String(), appConfig.App.IndexerPollInterval)
		if err != nil {
			log.Fatalf("new chain indexer err %s", err.Error())
		}
		go idx.Start(ctx)
		svc = indexer.NewService(appConfig.App.IndexerListen, idx)
		go func() {
			if err := svc.Start(); err != nil {
				logger.Error("indexer service stopped", "err", err)
			}
		}()
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if svc != nil {
				sctx, scancel := context.WithTimeout(context.Background(), 3*time.Second)
				_ = svc.Stop(sctx)
				scancel()
			}
			if err := node.Stop(); err != nil {
				fmt.Fprintf(os.Stderr, "stop comet node err %s\n", err.Error())
			}
			node.Wait()
			app.Stop()
			if idx != nil {
				_ = idx.Close()
			}
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
