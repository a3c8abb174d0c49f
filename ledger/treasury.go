package ledger

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
)

// Pause stops claims. Registration, contributions and governance keep working.
func (l *Ledger) Pause(env Env, admin types.Identity) (*types.EventPause, error) {
	return l.setPaused(env, admin, true)
}

func (l *Ledger) Unpause(env Env, admin types.Identity) (*types.EventPause, error) {
	return l.setPaused(env, admin, false)
}

func (l *Ledger) setPaused(env Env, admin types.Identity, paused bool) (event *types.EventPause, err error) {
	admin = admin.Normalize()
	err = l.apply(func(db store.KVStore) error {
		cfg, err := loadConfig(db)
		if err != nil {
			return err
		}
		if !isOwner(cfg, admin) {
			return errors.ErrNotOwner.Newf("%s cannot pause", admin)
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		tr.Paused = paused
		if err := save(db, KeyTreasury, tr); err != nil {
			return err
		}
		l.logger.Info("pause", "paused", paused, "height", env.Height)
		event = &types.EventPause{Admin: admin, Paused: paused}
		return nil
	})
	return
}

func (l *Ledger) GetParticipant(who types.Identity) (p *types.Participant, err error) {
	who = who.Normalize()
	err = l.view(func(db store.ReadOnlyKVStore) error {
		p, err = loadParticipant(db, who)
		if err == nil && p == nil {
			err = errors.ErrNotFound.Newf("participant %s", who)
		}
		return err
	})
	return
}

func (l *Ledger) GetTreasuryBalance() (balance uint64, err error) {
	err = l.view(func(db store.ReadOnlyKVStore) error {
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		balance = tr.Balance
		return nil
	})
	return
}

// GetProposal returns the stored proposal with its status evaluated at
// env.Height.
func (l *Ledger) GetProposal(env Env, id uint64) (proposal *types.Proposal, err error) {
	err = l.view(func(db store.ReadOnlyKVStore) error {
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		proposal, err = loadProposal(db, tr, id)
		if err != nil {
			return err
		}
		proposal.Status = proposal.StatusAt(env.Height)
		return nil
	})
	return
}

func (l *Ledger) GetVote(id uint64, voter types.Identity) (vote *types.VoteRecord, err error) {
	voter = voter.Normalize()
	err = l.view(func(db store.ReadOnlyKVStore) error {
		var v types.VoteRecord
		ok, err := load(db, VoteKey(id, voter), &v)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrNotFound.Newf("vote of %s on proposal %d", voter, id)
		}
		vote = &v
		return nil
	})
	return
}

func (l *Ledger) GetDistributionInfo(env Env) (info *types.DistributionInfo, err error) {
	err = l.view(func(db store.ReadOnlyKVStore) error {
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		info = &types.DistributionInfo{
			DistributionAmount:   tr.DistributionAmount,
			DistributionInterval: tr.DistributionInterval,
			MinimumBalance:       tr.MinimumBalance,
			TreasuryBalance:      tr.Balance,
			ParticipantCount:     tr.ParticipantCount,
			ProposalCount:        tr.ProposalCount,
			Paused:               tr.Paused,
			CurrentHeight:        env.Height,
		}
		return nil
	})
	return
}

func (l *Ledger) GetConfig() (cfg *types.LedgerConfig, err error) {
	err = l.view(func(db store.ReadOnlyKVStore) (err error) {
		cfg, err = loadConfig(db)
		return
	})
	return
}
