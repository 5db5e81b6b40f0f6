package cardano

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/alexdcox/cbor/v2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	KeyHashSize = 28
	TxHashSize  = 32
)

type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) Equal(other []byte) bool {
	return bytes.Equal(h, other)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HexBytes) UnmarshalJSON(data []byte) (err error) {
	var s string
	if err = json.Unmarshal(data, &s); err != nil {
		return errors.WithStack(err)
	}
	*h, err = HexBytesFromString(s)
	return
}

func HexBytesFromString(s string) (HexBytes, error) {
	decoded, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid hex string '%s'", s)
	}
	return decoded, nil
}

func blake2bSum(size int, data []byte) (hash HexBytes, err error) {
	h, err := blake2b.New(size, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create blake2b hash")
		return
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func Blake2bSum160(data []byte) (HexBytes, error) {
	return blake2bSum(20, data)
}

func Blake2bSum224(data []byte) (HexBytes, error) {
	return blake2bSum(28, data)
}

func Blake2bSum256(data []byte) (HexBytes, error) {
	return blake2bSum(32, data)
}

// TxHash returns the id of a serialised transaction: the blake2b-256 hash of
// its body, which is the first element of the transaction array.
func TxHash(tx []byte) (hash string, err error) {
	var parts []cbor.RawMessage
	if err = cbor.Unmarshal(tx, &parts); err != nil {
		err = errors.Wrap(err, "failed to decode transaction")
		return
	}

	if len(parts) < 2 {
		err = errors.Errorf("expected transaction array of at least 2 items, got %d", len(parts))
		return
	}

	sum, err := Blake2bSum256(parts[0])
	if err != nil {
		return
	}

	return sum.String(), nil
}

// NormalizeTxHash trims and lower cases a transaction id as typed by a user.
func NormalizeTxHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

// ValidateTxHash checks that hash is a 32 byte hex encoded transaction id.
func ValidateTxHash(hash string) error {
	decoded, err := hex.DecodeString(hash)
	if err != nil || len(decoded) != TxHashSize {
		return errors.Wrapf(ErrInvalidTransactionId, "'%s'", hash)
	}
	return nil
}
