package cardano

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

const MinCollateralLovelace = 5_000_000

// ChainProvider answers the chain queries the contracts need.
type ChainProvider interface {
	AddressUtxos(ctx context.Context, address string) ([]Utxo, error)
}

type TxSubmitter interface {
	SubmitTx(ctx context.Context, tx []byte) (txHash string, err error)
}

// TxWatcher blocks until a submitted transaction is visible on chain.
type TxWatcher interface {
	WaitForTx(ctx context.Context, txHash string) error
}

// TxBuilder balances, signs and serialises a plan using the wallet it was
// created with.
type TxBuilder interface {
	WalletAddress() string
	Build(ctx context.Context, plan *TxPlan) (*SignedTx, error)
}

type SignedTx struct {
	Hash string
	Cbor HexBytes
}

// NewSignedTx derives the transaction id from the serialised transaction.
func NewSignedTx(raw []byte) (*SignedTx, error) {
	hash, err := TxHash(raw)
	if err != nil {
		return nil, err
	}
	return &SignedTx{Hash: hash, Cbor: raw}, nil
}

type WalletInfo struct {
	Address    string
	Utxos      []Utxo
	Collateral *Utxo
}

// GetWalletInfo loads the wallet's utxos and picks a collateral candidate.
// A wallet without utxos fails with ErrNoUtxos. A missing collateral is only
// an error for plans that execute scripts, see RequireCollateral.
func GetWalletInfo(ctx context.Context, provider ChainProvider, address string) (info WalletInfo, err error) {
	utxos, err := provider.AddressUtxos(ctx, address)
	if err != nil {
		return
	}
	if len(utxos) == 0 {
		err = errors.Wrapf(ErrNoUtxos, "wallet %s", address)
		return
	}

	info = WalletInfo{Address: address, Utxos: utxos}
	if collateral, found := SelectCollateral(utxos); found {
		info.Collateral = &collateral
	}
	return
}

func (w WalletInfo) RequireCollateral() (Utxo, error) {
	if w.Collateral == nil {
		return Utxo{}, errors.Wrapf(ErrNoCollateral, "wallet %s needs a lovelace only utxo of at least %d lovelace", w.Address, MinCollateralLovelace)
	}
	return *w.Collateral, nil
}

// SelectCollateral picks the smallest lovelace only utxo holding at least
// MinCollateralLovelace.
func SelectCollateral(utxos []Utxo) (Utxo, bool) {
	var candidates []Utxo
	for _, u := range utxos {
		if u.Value.IsLovelaceOnly() && u.Value.Lovelace >= MinCollateralLovelace && len(u.InlineDatum) == 0 && len(u.DataHash) == 0 {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return Utxo{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value.Lovelace < candidates[j].Value.Lovelace
	})
	return candidates[0], true
}
