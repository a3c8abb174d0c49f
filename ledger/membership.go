package ledger

import (
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
)

// Register creates the participant record of the caller.
func (l *Ledger) Register(env Env, caller types.Identity) (event *types.EventRegister, err error) {
	caller = caller.Normalize()
	err = l.apply(func(db store.KVStore) error {
		p, err := loadParticipant(db, caller)
		if err != nil {
			return err
		}
		if p != nil {
			return errors.ErrAlreadyRegistered.Newf("participant %s", caller)
		}
		tr, err := loadTreasury(db)
		if err != nil {
			return err
		}
		p = &types.Participant{
			Registered: true,
			JoinHeight: env.Height,
		}
		if err := save(db, ParticipantKey(caller), p); err != nil {
			return err
		}
		tr.ParticipantCount++
		if err := save(db, KeyTreasury, tr); err != nil {
			return err
		}
		l.logger.Debug("register", "participant", caller, "height", env.Height)
		event = &types.EventRegister{Participant: caller, JoinHeight: env.Height}
		return nil
	})
	return
}

// Verify marks a registered participant as verified. Owner only.
func (l *Ledger) Verify(env Env, admin, target types.Identity) (event *types.EventVerify, err error) {
	admin, target = admin.Normalize(), target.Normalize()
	err = l.apply(func(db store.KVStore) error {
		cfg, err := loadConfig(db)
		if err != nil {
			return err
		}
		if !isOwner(cfg, admin) {
			return errors.ErrNotOwner.Newf("%s cannot verify", admin)
		}
		p, err := loadParticipant(db, target)
		if err != nil {
			return err
		}
		if p == nil {
			return errors.ErrNotRegistered.Newf("participant %s", target)
		}
		p.Verified = true
		if err := save(db, ParticipantKey(target), p); err != nil {
			return err
		}
		l.logger.Debug("verify", "participant", target, "height", env.Height)
		event = &types.EventVerify{Admin: admin, Target: target}
		return nil
	})
	return
}
