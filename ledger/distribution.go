package ledger

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
)

// eligibility returns nil when who may claim at the given height, otherwise
// the reason it may not. An underfunded treasury makes everyone ineligible.
func eligibility(env Env, tr *types.Treasury, who types.Identity, p *types.Participant) error {
	if p == nil || !p.Registered {
		return errors.ErrNotRegistered.Newf("participant %s", who)
	}
	if !p.Verified {
		return errors.ErrIneligible.New("not verified")
	}
	// the first claim has no cooldown to wait for
	if p.ClaimsCount > 0 {
		if env.Height < p.LastClaimHeight || env.Height-p.LastClaimHeight < tr.DistributionInterval {
			return errors.ErrIneligible.Newf("cooldown until height %d", p.LastClaimHeight+tr.DistributionInterval)
		}
	}
	if tr.Balance < tr.DistributionAmount {
		return errors.ErrIneligible.Newf("treasury holds %d, distribution is %d", tr.Balance, tr.DistributionAmount)
	}
	return nil
}

// IsEligible reports whether who could claim at env.Height. Unregistered
// identities are ineligible, not an error.
func (l *Ledger) IsEligible(env Env, who types.Identity) (eligible bool, reason string, err error) {
	who = who.Normalize()
	err = l.view(func(db store.ReadOnlyKVStore) error {
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		p, err := loadParticipant(db, who)
		if err != nil {
			return err
		}
		if e := eligibility(env, tr, who, p); e != nil {
			reason = e.Error()
			return nil
		}
		eligible = true
		return nil
	})
	return
}

// Claim pays the distribution amount from the treasury to the caller.
func (l *Ledger) Claim(env Env, caller types.Identity) (event *types.EventClaim, err error) {
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
		if tr.Paused {
			return errors.ErrUnauthorized.New("contract paused")
		}
		p, err := loadParticipant(db, caller)
		if err != nil {
			return err
		}
		if err := eligibility(env, tr, caller, p); err != nil {
			return err
		}
		// re-checked against the snapshot the payout is taken from
		if tr.Balance < tr.DistributionAmount {
			return errors.ErrInsufficientFunds.Newf("treasury holds %d, distribution is %d", tr.Balance, tr.DistributionAmount)
		}
		amount := tr.DistributionAmount
		total, err := addUint64(p.TotalClaimed, amount)
		if err != nil {
			return err
		}
		if err := l.bank.Transfer(db, amount, cfg.TreasuryAddress, caller); err != nil {
			return errors.Wrap(err, "distribution transfer")
		}

		tr.Balance -= amount
		p.LastClaimHeight = env.Height
		p.TotalClaimed = total
		p.ClaimsCount++
		if err := save(db, ParticipantKey(caller), p); err != nil {
			return err
		}
		if err := save(db, KeyTreasury, tr); err != nil {
			return err
		}
		l.logger.Debug("claim", "participant", caller, "amount", amount, "treasury", tr.Balance, "height", env.Height)
		event = &types.EventClaim{
			Participant:     caller,
			Amount:          amount,
			TreasuryBalance: tr.Balance,
			ClaimsCount:     p.ClaimsCount,
		}
		return nil
	})
	return
}

// Contribute moves the caller's whole custody balance into the treasury.
func (l *Ledger) Contribute(env Env, caller types.Identity) (event *types.EventContribute, err error) {
	caller = caller.Normalize()
	err = l.apply(func(db store.KVStore) error {
		cfg, err := loadConfig(db)
		if err != nil {
			return err
		}
		if caller == cfg.TreasuryAddress {
			return errors.ErrUnauthorized.New("treasury cannot contribute to itself")
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		amount, err := l.bank.Balance(db, caller)
		if err != nil {
			return err
		}
		if amount == 0 {
			return errors.ErrInvalidAmount.New("nothing to contribute")
		}
		balance, err := addUint64(tr.Balance, amount)
		if err != nil {
			return err
		}
		if err := l.bank.Transfer(db, amount, caller, cfg.TreasuryAddress); err != nil {
			return errors.Wrap(err, "contribution transfer")
		}
		tr.Balance = balance
		if err := save(db, KeyTreasury, tr); err != nil {
			return err
		}
		l.logger.Debug("contribute", "contributor", caller, "amount", amount, "treasury", tr.Balance, "height", env.Height)
		event = &types.EventContribute{
			Contributor:     caller,
			Amount:          amount,
			TreasuryBalance: tr.Balance,
		}
		return nil
	})
	return
}
