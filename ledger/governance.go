package ledger

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
)

// SubmitProposal opens a proposal to change one distribution parameter.
func (l *Ledger) SubmitProposal(env Env, caller types.Identity, tp types.ProposalType, value uint64) (event *types.EventProposal, err error) {
	caller = caller.Normalize()
	err = l.apply(func(db store.KVStore) error {
		cfg, err := loadConfig(db)
		if err != nil {
			return err
		}
		p, err := loadParticipant(db, caller)
		if err != nil {
			return err
		}
		if p == nil {
			return errors.ErrNotRegistered.Newf("participant %s", caller)
		}
		if !tp.Valid() {
			return errors.ErrInvalidProposalType.Newf("type %d", uint8(tp))
		}
		if value == 0 || value > cfg.MaxProposalValue {
			return errors.ErrInvalidValue.Newf("value must be within 1..%d", cfg.MaxProposalValue)
		}
		expiry, err := addUint64(env.Height, cfg.VotingPeriod)
		if err != nil {
			return err
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		tr.ProposalCount++
		proposal := &types.Proposal{
			Id:            tr.ProposalCount,
			Proposer:      caller,
			ProposalType:  tp,
			ProposedValue: value,
			Status:        types.ProposalStatusActive,
			ExpiryHeight:  expiry,
			CreatedHeight: env.Height,
		}
		if err := save(db, ProposalKey(proposal.Id), proposal); err != nil {
			return err
		}
		if err := save(db, KeyTreasury, tr); err != nil {
			return err
		}
		l.logger.Debug("proposal", "id", proposal.Id, "proposer", caller, "type", tp, "value", value, "expiry", expiry)
		event = &types.EventProposal{
			ProposalId:    proposal.Id,
			Proposer:      caller,
			ProposalType:  tp,
			ProposedValue: value,
			ExpiryHeight:  expiry,
		}
		return nil
	})
	return
}

// Vote records the caller's single vote on an active proposal.
func (l *Ledger) Vote(env Env, caller types.Identity, id uint64, inFavor bool) (event *types.EventVote, err error) {
	caller = caller.Normalize()
	err = l.apply(func(db store.KVStore) error {
		p, err := loadParticipant(db, caller)
		if err != nil {
			return err
		}
		if p == nil {
			return errors.ErrNotRegistered.Newf("participant %s", caller)
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		proposal, err := loadProposal(db, tr, id)
		if err != nil {
			return err
		}
		voted, err := db.Has(VoteKey(id, caller))
		if err != nil {
			return errors.Wrap(errors.ErrInternal, err.Error())
		}
		if voted {
			return errors.ErrAlreadyVoted.Newf("proposal %d", id)
		}
		if env.Height >= proposal.ExpiryHeight {
			return errors.ErrProposalExpired.Newf("proposal %d expired at height %d", id, proposal.ExpiryHeight)
		}
		if proposal.Status != types.ProposalStatusActive {
			return errors.ErrProposalNotActive.Newf("proposal %d is %s", id, proposal.Status)
		}

		if inFavor {
			proposal.VotesFor++
		} else {
			proposal.VotesAgainst++
		}
		vote := &types.VoteRecord{ProposalId: id, Voter: caller, InFavor: inFavor, Height: env.Height}
		if err := save(db, VoteKey(id, caller), vote); err != nil {
			return err
		}
		if err := save(db, ProposalKey(id), proposal); err != nil {
			return err
		}
		l.logger.Debug("vote", "id", id, "voter", caller, "inFavor", inFavor)
		event = &types.EventVote{
			ProposalId:   id,
			Voter:        caller,
			InFavor:      inFavor,
			VotesFor:     proposal.VotesFor,
			VotesAgainst: proposal.VotesAgainst,
		}
		return nil
	})
	return
}

// CloseProposal tallies a proposal. Before its expiry only the proposer or
// the owner may close it; afterwards any registered participant may.
func (l *Ledger) CloseProposal(env Env, caller types.Identity, id uint64) (event *types.EventCloseProposal, err error) {
	caller = caller.Normalize()
	err = l.apply(func(db store.KVStore) error {
		cfg, err := loadConfig(db)
		if err != nil {
			return err
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		proposal, err := loadProposal(db, tr, id)
		if err != nil {
			return err
		}
		if proposal.Status != types.ProposalStatusActive {
			return errors.ErrProposalNotActive.Newf("proposal %d already closed", id)
		}
		owner := isOwner(cfg, caller)
		if env.Height < proposal.ExpiryHeight {
			if !owner && caller != proposal.Proposer {
				return errors.ErrUnauthorized.Newf("proposal %d is open until height %d", id, proposal.ExpiryHeight)
			}
		} else if !owner {
			p, err := loadParticipant(db, caller)
			if err != nil {
				return err
			}
			if p == nil {
				return errors.ErrNotRegistered.Newf("participant %s", caller)
			}
		}

		proposal.Status = types.ProposalStatusClosed
		proposal.ClosedHeight = env.Height
		proposal.Passed = proposal.VotesFor > proposal.VotesAgainst
		if err := save(db, ProposalKey(id), proposal); err != nil {
			return err
		}
		l.logger.Debug("close proposal", "id", id, "for", proposal.VotesFor, "against", proposal.VotesAgainst, "passed", proposal.Passed)
		event = &types.EventCloseProposal{ProposalId: id, ClosedBy: caller, Passed: proposal.Passed}
		return nil
	})
	return
}

// ExecuteProposal applies the value of a closed, passed proposal to its
// parameter. Owner only.
func (l *Ledger) ExecuteProposal(env Env, admin types.Identity, id uint64) (event *types.EventExecuteProposal, err error) {
	admin = admin.Normalize()
	err = l.apply(func(db store.KVStore) error {
		cfg, err := loadConfig(db)
		if err != nil {
			return err
		}
		if !isOwner(cfg, admin) {
			return errors.ErrNotOwner.Newf("%s cannot execute proposals", admin)
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		proposal, err := loadProposal(db, tr, id)
		if err != nil {
			return err
		}
		if proposal.Status != types.ProposalStatusClosed {
			return errors.ErrProposalActive.Newf("proposal %d must be closed first", id)
		}
		if proposal.Executed {
			return errors.ErrAlreadyExecuted.Newf("proposal %d", id)
		}
		if !proposal.Passed {
			return errors.ErrProposalRejected.Newf("proposal %d", id)
		}

		var previous uint64
		switch proposal.ProposalType {
		case types.ProposalTypeDistributionAmount:
			previous, tr.DistributionAmount = tr.DistributionAmount, proposal.ProposedValue
		case types.ProposalTypeDistributionInterval:
			previous, tr.DistributionInterval = tr.DistributionInterval, proposal.ProposedValue
		case types.ProposalTypeMinimumBalance:
			previous, tr.MinimumBalance = tr.MinimumBalance, proposal.ProposedValue
		default:
			return errors.ErrInvalidProposalType.Newf("type %d", uint8(proposal.ProposalType))
		}
		proposal.Executed = true
		if err := save(db, ProposalKey(id), proposal); err != nil {
			return err
		}
		if err := save(db, KeyTreasury, tr); err != nil {
			return err
		}
		l.logger.Info("parameter changed", "proposal", id, "param", proposal.ProposalType, "from", previous, "to", proposal.ProposedValue, "height", env.Height)
		event = &types.EventExecuteProposal{
			ProposalId:    id,
			ProposalType:  proposal.ProposalType,
			ProposedValue: proposal.ProposedValue,
			PreviousValue: previous,
		}
		return nil
	})
	return
}
