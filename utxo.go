package cardano

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TxRef points at a transaction output.
type TxRef struct {
	Hash  string `json:"txHash"`
	Index uint32 `json:"outputIndex"`
}

func (r TxRef) String() string {
	return fmt.Sprintf("%s#%d", r.Hash, r.Index)
}

func (r TxRef) Validate() error {
	return ValidateTxHash(r.Hash)
}

// ParseTxRef parses the "hash#index" form used by cardano-cli.
func ParseTxRef(s string) (ref TxRef, err error) {
	hash, index, found := strings.Cut(strings.TrimSpace(s), "#")
	if !found {
		err = errors.Wrapf(ErrInvalidTransactionId, "expected <hash>#<index>, got '%s'", s)
		return
	}

	i, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		err = errors.Wrapf(ErrInvalidTransactionId, "invalid output index '%s'", index)
		return
	}

	ref = TxRef{Hash: strings.ToLower(hash), Index: uint32(i)}
	err = ref.Validate()
	return
}

type Utxo struct {
	Ref         TxRef    `json:"ref"`
	Address     string   `json:"address"`
	Value       Value    `json:"value"`
	InlineDatum HexBytes `json:"inlineDatum,omitempty"`
	DataHash    HexBytes `json:"dataHash,omitempty"`
}

// Datum decodes the inline datum.
func (u Utxo) Datum() (PlutusData, error) {
	if len(u.InlineDatum) == 0 {
		return nil, errors.Wrapf(ErrInvalidDatum, "utxo %s has no inline datum", u.Ref)
	}
	return DecodePlutusData(u.InlineDatum)
}

// FindUtxoByTxHash returns the first utxo created by txHash.
func FindUtxoByTxHash(utxos []Utxo, txHash string) (utxo Utxo, err error) {
	txHash = NormalizeTxHash(txHash)
	for _, u := range utxos {
		if u.Ref.Hash == txHash {
			return u, nil
		}
	}
	err = errors.Wrapf(ErrUtxoNotFound, "%s", txHash)
	return
}
