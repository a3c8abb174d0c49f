// Package crypto loads the node key used by the CLI to sign transactions.
package crypto

import (
	"fmt"
	"os"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

// Signer signs transactions on behalf of one identity.
type Signer interface {
	PublicKey() []byte
	Address() string
	Sign(data []byte) ([]byte, error)
}

type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

var _ Signer = (*PV)(nil)

func NewPV(privateKey crypto.PrivKey) *PV {
	return &PV{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}
}

// LoadFilePV reads the private validator key file written by init.
func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	if pvKey.PrivKey == nil {
		return nil, fmt.Errorf("no private key in %v", keyFilePath)
	}
	return NewPV(pvKey.PrivKey), nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
