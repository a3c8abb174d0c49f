package state

import (
	"encoding/json"

	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

// Account is a custody account. Accounts of signers carry their public key
// and nonce; the treasury account has neither.
type Account struct {
	Index   uint64
	Address types.Identity
	PubKey  []byte
	Balance uint64
	Nonce   uint64
}

type accountSt struct {
	Index   uint64         `json:"index"`
	Address types.Identity `json:"address"`
	PubKey  ed25519.PubKey `json:"pubKey,omitempty"`
	Balance uint64         `json:"balance"`
	Nonce   uint64         `json:"nonce"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Index:   a.Index,
		Address: a.Address,
		PubKey:  a.PubKey,
		Balance: a.Balance,
		Nonce:   a.Nonce,
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.Index = o.Index
	a.Address = o.Address
	a.PubKey = o.PubKey
	a.Balance = o.Balance
	a.Nonce = o.Nonce
	return
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) Verify(msg []byte, sigs []byte) (succ bool) {
	if len(a.PubKey) != ed25519.PubKeySize {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs)
}
