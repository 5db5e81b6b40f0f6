package cardano

import (
	"context"

	"github.com/pkg/errors"
)

// lookupScriptUtxo scans the outputs sitting at a script address for the one
// created by txHash.
func lookupScriptUtxo(ctx context.Context, provider ChainProvider, script PlutusScript, net Network, txHash string) (utxo Utxo, err error) {
	txHash = NormalizeTxHash(txHash)
	if err = ValidateTxHash(txHash); err != nil {
		return
	}

	addr, err := script.Address(net)
	if err != nil {
		return
	}

	utxos, err := provider.AddressUtxos(ctx, addr.String())
	if err != nil {
		err = errors.Wrapf(err, "failed to fetch utxos for script address %s", addr)
		return
	}

	Log().Debug().Msgf("found %d utxos at script address %s", len(utxos), addr)

	return FindUtxoByTxHash(utxos, txHash)
}

// walletKeyHash returns the payment key hash of a bech32 wallet address.
func walletKeyHash(address string) (HexBytes, error) {
	addr, err := DecodeAddress(address)
	if err != nil {
		return nil, err
	}
	return addr.PaymentKeyHash()
}
