package tx

import (
	"encoding/json"

	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

// Tx is the signed envelope of every ledger call. The signer's address is
// the caller identity.
type Tx struct {
	Version uint8  `json:"version"`
	Type    TxType `json:"type"`
	Nonce   uint64 `json:"nonce"`
	PubKey  []byte `json:"pubKey"`
	Tx      any    `json:"tx"`
	Sig     []byte `json:"sig"`
}

type RegisterTx struct{}

type VerifyTx struct {
	Target types.Identity `json:"target"`
}

type ClaimTx struct{}

type ContributeTx struct{}

type SubmitProposalTx struct {
	ProposalType types.ProposalType `json:"proposalType"`
	Value        uint64             `json:"value"`
}

type VoteTx struct {
	Proposal uint64 `json:"proposal"`
	InFavor  bool   `json:"inFavor"`
}

type CloseProposalTx struct {
	Proposal uint64 `json:"proposal"`
}

type ExecuteProposalTx struct {
	Proposal uint64 `json:"proposal"`
}

type PauseTx struct{}

type UnpauseTx struct{}

type txTmpl[T any] struct {
	Version uint8  `json:"version"`
	Type    TxType `json:"type"`
	Nonce   uint64 `json:"nonce"`
	PubKey  []byte `json:"pubKey"`
	Tx      T      `json:"tx"`
	Sig     []byte `json:"sig"`
}

// Sender is the identity of the key that signs the transaction.
func (tx *Tx) Sender() types.Identity {
	if len(tx.PubKey) != ed25519.PubKeySize {
		return ""
	}
	return types.Identity(ed25519.PubKey(tx.PubKey).Address().String())
}

// SigData is the message signed by the sender: the envelope with the chain
// id in place of the signature.
func (tx *Tx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = ext
	dat, err = json.Marshal(ntx)
	return
}

func parseTxType(dat []byte) TxType {
	var tx struct {
		Type TxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return TxTypeUnknown
	}
	return tx.Type
}

func unmarshalTx[T any](dat []byte) (btx *Tx, err error) {
	var txt txTmpl[T]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	btx = new(Tx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.PubKey = txt.PubKey
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalTx(dat []byte) (btx *Tx, err error) {
	tp := parseTxType(dat)
	switch tp {
	case TxTypeRegister:
		btx, err = unmarshalTx[RegisterTx](dat)
	case TxTypeVerify:
		btx, err = unmarshalTx[VerifyTx](dat)
	case TxTypeClaim:
		btx, err = unmarshalTx[ClaimTx](dat)
	case TxTypeContribute:
		btx, err = unmarshalTx[ContributeTx](dat)
	case TxTypeSubmitProposal:
		btx, err = unmarshalTx[SubmitProposalTx](dat)
	case TxTypeVote:
		btx, err = unmarshalTx[VoteTx](dat)
	case TxTypeCloseProposal:
		btx, err = unmarshalTx[CloseProposalTx](dat)
	case TxTypeExecuteProposal:
		btx, err = unmarshalTx[ExecuteProposalTx](dat)
	case TxTypePause:
		btx, err = unmarshalTx[PauseTx](dat)
	case TxTypeUnpause:
		btx, err = unmarshalTx[UnpauseTx](dat)
	default:
		return nil, errors.ErrUnsupportedTx.Newf("type %s", tp)
	}
	if err != nil {
		return nil, err
	}
	if btx.Version != TxVersion0 {
		return nil, errors.ErrUnsupportedTx.Newf("version %d", btx.Version)
	}
	return
}

func MarshalTx(btx *Tx) (dat []byte, err error) {
	return json.Marshal(btx)
}

// Payload returns the typed body of a decoded transaction.
func Payload[T any](btx *Tx) (*T, error) {
	switch p := btx.Tx.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	}
	return nil, errors.ErrInvalidInput.Newf("payload of %s is %T", btx.Type, btx.Tx)
}
