package app

import (
	"context"
	"path/filepath"

	"github.com/carlton-source/bitcoin-ubi-protocol/config"
	"github.com/carlton-source/bitcoin-ubi-protocol/ledger"
	"github.com/carlton-source/bitcoin-ubi-protocol/state"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx/handler"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	cmtstore "github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

// Version is reported to CometBFT in Info.
var Version = "0.1.0"

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &UbiApp{}

type UbiApp struct {
	cfg    *config.AppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	bank     state.Bank
	ledger   *ledger.Ledger
	lastBlk  finalizeBlock
	txHdlrs  map[tx.TxType]handler.TxHandler
	queriers map[string]Querier

	// CheckTx runs against a buffer over the working tree that is dropped on
	// every Commit.
	checkStore  *store.CacheWrap
	checkLedger *ledger.Ledger
}

func NewUbiApp(cfg *config.AppConfig, logger cmtlog.Logger) (app *UbiApp, err error) {
	logger = logger.With("module", "app")

	dir := filepath.Join(cfg.Home, "data")
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}
	return newUbiApp(cfg, db, logger), nil
}

func newUbiApp(cfg *config.AppConfig, db *state.StateDB, logger cmtlog.Logger) *UbiApp {
	app := &UbiApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		queriers: make(map[string]Querier),
	}
	app.ledger = ledger.New(db.Store(), app.bank, logger)
	app.resetCheckState()
	app.registerTxHandler()
	app.registerQuerier()
	return app
}

func (app *UbiApp) Start(bs *cmtstore.BlockStore) {
	height := app.db.Height()
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
	app.logger.Info("UBI app started", "height", height, "appHash", app.db.Hash())
}

func (app *UbiApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("UBI app stopped")
}

func (app *UbiApp) resetCheckState() {
	app.checkStore = store.NewCacheWrap(app.db.Store())
	app.checkLedger = ledger.New(app.checkStore, app.bank, app.logger.With("mode", "check"))
}

func (app *UbiApp) registerTxHandler() {
	app.txHdlrs = handler.Handlers(app.logger)
}

func (app *UbiApp) registerQuerier() {
	app.queriers["/account/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/participant/"] = NewParticipantQuerier(app.db, app.bank, app.logger)
	app.queriers["/treasury/"] = NewTreasuryQuerier(app.db, app.bank, app.logger)
	app.queriers["/proposal/"] = NewProposalQuerier(app.db, app.bank, app.logger)
	app.queriers["/vote/"] = NewVoteQuerier(app.db, app.bank, app.logger)
	app.queriers["/distribution/"] = NewDistributionQuerier(app.db, app.bank, app.logger)
	app.queriers["/eligible/"] = NewEligibleQuerier(app.db, app.bank, app.logger)
}

func (app *UbiApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	app.db.SetChainId(chain.ChainId)
	g, err := types.ParseAppGenesis(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app_state fail", "err", err)
		return nil, err
	}
	db := app.db.Store()
	for _, acnt := range g.Accounts {
		if err = app.bank.Mint(db, acnt.Address, acnt.Balance); err != nil {
			app.logger.Error("InitChain add account fail", "address", acnt.Address, "err", err)
			return nil, err
		}
	}
	if g.Treasury > 0 {
		if err = app.bank.Mint(db, types.TreasuryAddress, g.Treasury); err != nil {
			app.logger.Error("InitChain fund treasury fail", "err", err)
			return nil, err
		}
	}
	if err = app.ledger.InitGenesis(g); err != nil {
		app.logger.Error("InitChain ledger genesis fail", "err", err)
		return nil, err
	}
	app.resetCheckState()
	h := app.db.WorkingHash()
	app.logger.Info("InitChain", "chainId", chain.ChainId, "owner", g.Owner, "treasury", g.Treasury, "accounts", len(g.Accounts))
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *UbiApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	res := &abcitypes.ResponseInfo{
		Data:            types.UbiModuleName,
		Version:         Version,
		LastBlockHeight: int64(header.Height),
	}
	if header.Height > 0 {
		res.LastBlockAppHash = app.db.Hash().Bytes()
	}
	return res, nil
}

func (app *UbiApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *UbiApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *UbiApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *UbiApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *UbiApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *UbiApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
