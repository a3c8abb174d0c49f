package state

import (
	"fmt"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/store"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	StartAccountIdx = 65536
)

var (
	KeyState        = "s"
	KeyAccountSeq   = "n"
	KeyAccountIndex = "i%s"
	KeyAccountBody  = "a%016x"
)

// Header is the chain metadata stored next to the application state.
type Header struct {
	ChainId string
	Height  uint64
}

func (h *Header) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, h.ChainId)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, h.Height)
	return b
}

func (h *Header) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			h.ChainId = v
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			h.Height = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func calcHash(rootHash []byte) common.Hash {
	return crypto.Keccak256Hash(rootHash)
}

// AddressOf renders raw address bytes the way identities are keyed.
func AddressOf(addr []byte) types.Identity {
	return types.Identity(cmtcrypto.Address(addr).String())
}

func PubKeyAddress(pubkey []byte) types.Identity {
	return AddressOf(ed25519.PubKey(pubkey).Address())
}

func nextAccountIdx(db store.KVStore) (idx uint64, err error) {
	idx = StartAccountIdx
	val, err := db.Get([]byte(KeyAccountSeq))
	if err != nil {
		return 0, err
	}
	if val != nil {
		if err = rlp.DecodeBytes(val, &idx); err != nil {
			return 0, err
		}
	}
	val, err = rlp.EncodeToBytes(idx + 1)
	if err != nil {
		return 0, err
	}
	return idx, db.Set([]byte(KeyAccountSeq), val)
}

func GetAccount(db store.ReadOnlyKVStore, idx uint64) (*Account, error) {
	val, err := db.Get([]byte(fmt.Sprintf(KeyAccountBody, idx)))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, errors.ErrNotFound.Newf("account %d", idx)
	}
	acnt := new(Account)
	if err := acnt.UnmarshalJSON(val); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	return acnt, nil
}

// FindAccount returns nil without error when addr has no account.
func FindAccount(db store.ReadOnlyKVStore, addr types.Identity) (*Account, error) {
	val, err := db.Get([]byte(fmt.Sprintf(KeyAccountIndex, addr.Normalize())))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	var idx uint64
	if err := rlp.DecodeBytes(val, &idx); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, err.Error())
	}
	return GetAccount(db, idx)
}

// SetAccount stores acnt, allocating an index for new accounts.
func SetAccount(db store.KVStore, acnt *Account) error {
	if acnt.Index == 0 {
		idx, err := nextAccountIdx(db)
		if err != nil {
			return err
		}
		acnt.Index = idx
		val, err := rlp.EncodeToBytes(idx)
		if err != nil {
			return err
		}
		if err := db.Set([]byte(fmt.Sprintf(KeyAccountIndex, acnt.Address)), val); err != nil {
			return err
		}
	}
	val, err := acnt.MarshalJSON()
	if err != nil {
		return err
	}
	return db.Set([]byte(fmt.Sprintf(KeyAccountBody, acnt.Index)), val)
}

func findOrNew(db store.ReadOnlyKVStore, addr types.Identity) (*Account, error) {
	acnt, err := FindAccount(db, addr)
	if err != nil || acnt != nil {
		return acnt, err
	}
	return &Account{Address: addr.Normalize()}, nil
}

// Verify checks the nonce and the signature of t against the signer's
// account. A signer without an account starts at nonce zero. CheckTx passes
// allowNonceGap so that a client may queue several transactions.
func Verify(db store.ReadOnlyKVStore, chainId string, t *tx.Tx, allowNonceGap bool) error {
	if len(t.PubKey) != ed25519.PubKeySize {
		return errors.ErrInvalidSignature.New("bad public key length")
	}
	acnt, err := findOrNew(db, PubKeyAddress(t.PubKey))
	if err != nil {
		return err
	}
	if !(acnt.Nonce == t.Nonce || (allowNonceGap && acnt.Nonce < t.Nonce)) {
		return errors.ErrInvalidNonce.Newf("expected %d, got %d", acnt.Nonce, t.Nonce)
	}
	dat, err := t.SigData([]byte(chainId))
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	acnt.SetPubKey(t.PubKey)
	if !acnt.Verify(dat, t.Sig) {
		return errors.ErrInvalidSignature.New("signature mismatch")
	}
	return nil
}

// IncrementNonce bumps the signer's nonce, creating its account on first use.
func IncrementNonce(db store.KVStore, pubkey []byte) (*Account, error) {
	acnt, err := findOrNew(db, PubKeyAddress(pubkey))
	if err != nil {
		return nil, err
	}
	acnt.SetPubKey(pubkey)
	acnt.Nonce++
	return acnt, SetAccount(db, acnt)
}

// Bank keeps the custody balances as accounts in the state tree.
type Bank struct{}

func (Bank) Balance(db store.ReadOnlyKVStore, who types.Identity) (uint64, error) {
	acnt, err := FindAccount(db, who)
	if err != nil || acnt == nil {
		return 0, err
	}
	return acnt.Balance, nil
}

func (Bank) Transfer(db store.KVStore, amount uint64, from, to types.Identity) error {
	if amount == 0 {
		return errors.ErrInvalidAmount.New("zero transfer")
	}
	src, err := FindAccount(db, from)
	if err != nil {
		return err
	}
	if src == nil || src.Balance < amount {
		return errors.ErrInsufficientFunds.Newf("%s cannot send %d", from, amount)
	}
	if from.Normalize() == to.Normalize() {
		return nil
	}
	dst, err := findOrNew(db, to)
	if err != nil {
		return err
	}
	if dst.Balance+amount < dst.Balance {
		return errors.ErrOverflow.Newf("balance of %s", to)
	}
	src.Balance -= amount
	dst.Balance += amount
	if err := SetAccount(db, src); err != nil {
		return err
	}
	return SetAccount(db, dst)
}

// Mint credits funds out of thin air. Only genesis uses it.
func (Bank) Mint(db store.KVStore, to types.Identity, amount uint64) error {
	acnt, err := findOrNew(db, to)
	if err != nil {
		return err
	}
	if acnt.Balance+amount < acnt.Balance {
		return errors.ErrOverflow.Newf("balance of %s", to)
	}
	acnt.Balance += amount
	return SetAccount(db, acnt)
}
