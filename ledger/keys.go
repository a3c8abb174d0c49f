package ledger

import (
	"encoding/binary"
	"encoding/json"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
)

var (
	KeyConfig   = []byte("config")
	KeyTreasury = []byte("treasury")

	PrefixParticipant = []byte("participant:")
	PrefixProposal    = []byte("proposal:")
	PrefixVote        = []byte("vote:")
)

func ParticipantKey(id types.Identity) []byte {
	return append(append([]byte{}, PrefixParticipant...), id...)
}

func ProposalKey(id uint64) []byte {
	key := make([]byte, len(PrefixProposal)+8)
	copy(key, PrefixProposal)
	binary.BigEndian.PutUint64(key[len(PrefixProposal):], id)
	return key
}

func VoteKey(id uint64, voter types.Identity) []byte {
	key := make([]byte, 0, len(PrefixVote)+9+len(voter))
	key = append(key, PrefixVote...)
	key = binary.BigEndian.AppendUint64(key, id)
	key = append(key, ':')
	return append(key, voter...)
}

// load decodes the record under key into v. It reports false when the key is
// absent.
func load(db store.ReadOnlyKVStore, key []byte, v any) (bool, error) {
	raw, err := db.Get(key)
	if err != nil {
		return false, errors.Wrap(errors.ErrInternal, err.Error())
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(errors.ErrInternal, "decode %q: %v", key, err)
	}
	return true, nil
}

func save(db store.KVStore, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(errors.ErrInternal, "encode %q: %v", key, err)
	}
	if err := db.Set(key, raw); err != nil {
		return errors.Wrap(errors.ErrInternal, err.Error())
	}
	return nil
}

func loadConfig(db store.ReadOnlyKVStore) (*types.LedgerConfig, error) {
	var cfg types.LedgerConfig
	ok, err := load(db, KeyConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrNotFound.New("ledger not initialized")
	}
	return &cfg, nil
}

func loadTreasury(db store.ReadOnlyKVStore) (*types.Treasury, error) {
	var tr types.Treasury
	ok, err := load(db, KeyTreasury, &tr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrNotFound.New("ledger not initialized")
	}
	return &tr, nil
}

// loadParticipant returns nil without error for an unknown identity.
func loadParticipant(db store.ReadOnlyKVStore, id types.Identity) (*types.Participant, error) {
	var p types.Participant
	ok, err := load(db, ParticipantKey(id), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func loadProposal(db store.ReadOnlyKVStore, tr *types.Treasury, id uint64) (*types.Proposal, error) {
	if id == 0 || id > tr.ProposalCount {
		return nil, errors.ErrUnknownProposal.Newf("proposal %d", id)
	}
	var p types.Proposal
	ok, err := load(db, ProposalKey(id), &p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrUnknownProposal.Newf("proposal %d", id)
	}
	return &p, nil
}
