package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/carlton-source/bitcoin-ubi-protocol/crypto"
	"github.com/carlton-source/bitcoin-ubi-protocol/errors"
	"github.com/carlton-source/bitcoin-ubi-protocol/state"
	"github.com/carlton-source/bitcoin-ubi-protocol/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/rpc/client/http"
)

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client err:%w", err)
	}
	return cli, nil
}

// abciQuery runs an ABCI query and returns its raw value. Failure codes are
// turned back into ledger errors.
func abciQuery(ctx context.Context, cli *http.HTTP, path string, data []byte) ([]byte, error) {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if err := errors.FromABCI(res.Response.Code, res.Response.Log); err != nil {
		return nil, err
	}
	return res.Response.Value, nil
}

func printJSON(dat []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, dat, "", "  "); err != nil {
		return err
	}
	fmt.Println(out.String())
	return nil
}

// queryAccount returns the custody account of addr, or nil when it does not
// exist yet.
func queryAccount(ctx context.Context, cli *http.HTTP, addr []byte) (*state.Account, error) {
	dat, err := abciQuery(ctx, cli, "/account/", addr)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var act state.Account
	if err := act.UnmarshalJSON(dat); err != nil {
		return nil, err
	}
	return &act, nil
}

// sendTx signs payload with the key at keyPath and broadcasts it. The nonce
// is read from the chain.
func sendTx(ctx context.Context, url string, keyPath string, tp tx.TxType, payload any) error {
	cli, err := newClient(url)
	if err != nil {
		return err
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis err:%w", err)
	}
	chainId := gres.Genesis.ChainID

	pv, err := crypto.LoadFilePV(keyPath)
	if err != nil {
		return err
	}
	act, err := queryAccount(ctx, cli, ed25519.PubKey(pv.PublicKey()).Address())
	if err != nil {
		return err
	}
	var nonce uint64
	if act != nil {
		nonce = act.Nonce
	}

	btx, err := signTx(pv, chainId, nonce, tp, payload)
	if err != nil {
		return err
	}
	dat, err := tx.MarshalTx(btx)
	if err != nil {
		return err
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx err:%w", err)
	}
	if err := errors.FromABCI(res.Code, res.Log); err != nil {
		return err
	}
	fmt.Printf("sender:%s nonce:%d tx:%s\n", pv.Address(), nonce, res.Hash)
	return nil
}

func signTx(signer crypto.Signer, chainId string, nonce uint64, tp tx.TxType, payload any) (*tx.Tx, error) {
	btx := &tx.Tx{
		Version: tx.TxVersion0,
		Type:    tp,
		Nonce:   nonce,
		PubKey:  signer.PublicKey(),
		Tx:      payload,
	}
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		return nil, err
	}
	btx.Sig, err = signer.Sign(dat)
	if err != nil {
		return nil, fmt.Errorf("sign tx err:%w", err)
	}
	return btx, nil
}
