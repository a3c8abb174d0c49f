// Package indexer follows the chain over RPC, stores the ledger events in
// sqlite and serves them over HTTP.
package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	ctypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// BlockSource is the part of the CometBFT RPC client the indexer reads from.
type BlockSource interface {
	Status(ctx context.Context) (*ctypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*ctypes.ResultBlockResults, error)
}

var _ BlockSource = (*comethttp.HTTP)(nil)

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           BlockSource
	eventHandlers map[string]eventHandler
	interval      time.Duration
}

func OpenDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Participant{}, &Claim{}, &Contribution{}, &Proposal{}, &Vote{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, cli, interval)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, cli BlockSource, interval time.Duration) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h.Height + 1),
		db:       db,
		cli:      cli,
		interval: interval,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventRegisterType:        c.handleEventRegister,
		types.EventVerifyType:          c.handleEventVerify,
		types.EventClaimType:           c.handleEventClaim,
		types.EventContributeType:      c.handleEventContribute,
		types.EventProposalType:        c.handleEventProposal,
		types.EventVoteType:            c.handleEventVote,
		types.EventCloseProposalType:   c.handleEventCloseProposal,
		types.EventExecuteProposalType: c.handleEventExecuteProposal,
		types.EventPauseType:           c.handleEventPause,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

// Start polls for new blocks until ctx is done.
func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.sync(ctx); err != nil {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
			}
		}
	}
}

// sync indexes every block up to the latest one.
func (c *ChainIndexer) sync(ctx context.Context) error {
	st, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for st.SyncInfo.LatestBlockHeight >= c.Height {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.indexBlock(ctx, c.Height); err != nil {
			return err
		}
		c.Height++
	}
	return nil
}

// indexBlock stores the events of one block and the indexed height in one
// sqlite transaction.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64) error {
	res, err := c.cli.BlockResults(ctx, &height)
	if err != nil {
		return err
	}
	c.logger.Debug("indexer syncing", "height", height, "txs", len(res.TxsResults))
	dbtx := c.db.Begin()
	if err := dbtx.Error; err != nil {
		return err
	}
	for _, txRes := range res.TxsResults {
		if txRes == nil || txRes.Code != abci.CodeTypeOK {
			continue
		}
		for _, event := range txRes.Events {
			if err := c.handleEvent(dbtx, event, height); err != nil {
				dbtx.Rollback()
				return err
			}
		}
	}
	if err := dbtx.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		dbtx.Rollback()
		return err
	}
	return dbtx.Commit().Error
}

type eventHandler func(db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventRegister(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventRegister(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	p := Participant{
		Address:    ev.Participant.String(),
		JoinHeight: ev.JoinHeight,
	}
	return db.Save(&p).Error
}

func (c *ChainIndexer) handleEventVerify(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVerify(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return db.Model(&Participant{}).Where("address = ?", ev.Target.String()).Updates(map[string]any{
		"verified":        true,
		"verified_by":     ev.Admin.String(),
		"verified_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventClaim(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventClaim(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	claim := Claim{
		Participant:     ev.Participant.String(),
		Amount:          ev.Amount,
		TreasuryBalance: ev.TreasuryBalance,
		ClaimsCount:     ev.ClaimsCount,
		Height:          uint64(height),
	}
	if err := db.Create(&claim).Error; err != nil {
		return err
	}
	return db.Model(&Participant{}).Where("address = ?", claim.Participant).Updates(map[string]any{
		"claims_count":      ev.ClaimsCount,
		"total_claimed":     gorm.Expr("total_claimed + ?", ev.Amount),
		"last_claim_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventContribute(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventContribute(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return db.Create(&Contribution{
		Contributor:     ev.Contributor.String(),
		Amount:          ev.Amount,
		TreasuryBalance: ev.TreasuryBalance,
		Height:          uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventProposal(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return db.Save(&Proposal{
		Id:            ev.ProposalId,
		Proposer:      ev.Proposer.String(),
		ProposalType:  ev.ProposalType.String(),
		ProposedValue: ev.ProposedValue,
		Status:        types.ProposalStatusActive.String(),
		CreatedHeight: uint64(height),
		ExpiryHeight:  ev.ExpiryHeight,
	}).Error
}

func (c *ChainIndexer) handleEventVote(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	vote := Vote{
		Proposal: ev.ProposalId,
		Voter:    ev.Voter.String(),
		InFavor:  ev.InFavor,
		Height:   uint64(height),
	}
	if err := db.Create(&vote).Error; err != nil {
		return err
	}
	return db.Model(&Proposal{}).Where("id = ?", ev.ProposalId).Updates(map[string]any{
		"votes_for":     ev.VotesFor,
		"votes_against": ev.VotesAgainst,
	}).Error
}

func (c *ChainIndexer) handleEventCloseProposal(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventCloseProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return db.Model(&Proposal{}).Where("id = ?", ev.ProposalId).Updates(map[string]any{
		"status":        types.ProposalStatusClosed.String(),
		"passed":        ev.Passed,
		"closed_by":     ev.ClosedBy.String(),
		"closed_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventExecuteProposal(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventExecuteProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return db.Model(&Proposal{}).Where("id = ?", ev.ProposalId).Updates(map[string]any{
		"executed":        true,
		"executed_height": uint64(height),
		"previous_value":  ev.PreviousValue,
	}).Error
}

func (c *ChainIndexer) handleEventPause(db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventPause(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	c.logger.Info("distribution pause changed", "paused", ev.Paused, "admin", ev.Admin, "height", height)
	return nil
}

func (c *ChainIndexer) getParticipants(address string, page int, pageSize int) ([]Participant, uint64, error) {
	var participants []Participant
	q := c.db.Model(&Participant{})
	if address != "" {
		q = q.Where("address = ?", address)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("join_height asc").Offset(page * pageSize).Limit(pageSize).Find(&participants).Error
	if err != nil {
		return nil, 0, err
	}
	return participants, total, nil
}

func (c *ChainIndexer) getClaims(participant string, page int, pageSize int) ([]Claim, uint64, error) {
	var claims []Claim
	q := c.db.Model(&Claim{})
	if participant != "" {
		q = q.Where("participant = ?", participant)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&claims).Error
	if err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

func (c *ChainIndexer) getContributions(contributor string, page int, pageSize int) ([]Contribution, uint64, error) {
	var contributions []Contribution
	q := c.db.Model(&Contribution{})
	if contributor != "" {
		q = q.Where("contributor = ?", contributor)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&contributions).Error
	if err != nil {
		return nil, 0, err
	}
	return contributions, total, nil
}

func (c *ChainIndexer) getProposals(proposer string, status string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	q := c.db.Model(&Proposal{})
	if proposer != "" {
		q = q.Where("proposer = ?", proposer)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", proposalId).First(&proposal).Error
	return proposal, err
}

func (c *ChainIndexer) getVotes(proposalId uint64, voter string, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	q := c.db.Model(&Vote{})
	if proposalId != 0 {
		q = q.Where("proposal = ?", proposalId)
	}
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}
