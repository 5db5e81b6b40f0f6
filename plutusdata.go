package cardano

import (
	"encoding/json"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// PlutusData is the on-chain data model shared by datums, redeemers and
// script parameters. Encoding follows the ledger's conventions: non-empty
// lists are indefinite length and byte strings over 64 bytes are chunked.
type PlutusData interface {
	cbor.Marshaler
	json.Marshaler
	plutusData()
}

const (
	boundedBytesChunk = 64
	constrTagSmall    = 121
	constrTagLarge    = 1280
	constrTagGeneral  = 102
)

type Constr struct {
	Index  uint64
	Fields []PlutusData
}

type ByteString []byte

type Integer struct {
	Value *big.Int
}

type List []PlutusData

func (Constr) plutusData()     {}
func (ByteString) plutusData() {}
func (Integer) plutusData()    {}
func (List) plutusData()       {}

func NewConstr(index uint64, fields ...PlutusData) Constr {
	if fields == nil {
		fields = []PlutusData{}
	}
	return Constr{Index: index, Fields: fields}
}

func NewInt(i int64) Integer {
	return Integer{Value: big.NewInt(i)}
}

func NewList(items ...PlutusData) List {
	if items == nil {
		return List{}
	}
	return items
}

// TxOutRefData is the Plutus V2 TxOutRef: Constr0[Constr0[txId], index].
func TxOutRefData(ref TxRef) (PlutusData, error) {
	id, err := HexBytesFromString(ref.Hash)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTransactionId, err.Error())
	}
	return NewConstr(0, NewConstr(0, ByteString(id)), NewInt(int64(ref.Index))), nil
}

func (c Constr) MarshalCBOR() ([]byte, error) {
	fields, err := List(c.Fields).MarshalCBOR()
	if err != nil {
		return nil, err
	}

	switch {
	case c.Index < 7:
		return cbor.Marshal(cbor.RawTag{Number: constrTagSmall + c.Index, Content: fields})
	case c.Index < 128:
		return cbor.Marshal(cbor.RawTag{Number: constrTagLarge + c.Index - 7, Content: fields})
	}

	general, err := cbor.Marshal([]cbor.RawMessage{mustMarshal(c.Index), fields})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return cbor.Marshal(cbor.RawTag{Number: constrTagGeneral, Content: general})
}

func (l List) MarshalCBOR() ([]byte, error) {
	if len(l) == 0 {
		return []byte{0x80}, nil
	}

	out := []byte{0x9f}
	for i, item := range l {
		if item == nil {
			return nil, errors.Errorf("nil plutus data at list index %d", i)
		}
		encoded, err := item.MarshalCBOR()
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
	}
	return append(out, 0xff), nil
}

func (b ByteString) MarshalCBOR() ([]byte, error) {
	if len(b) <= boundedBytesChunk {
		return cbor.Marshal([]byte(b))
	}

	out := []byte{0x5f}
	for start := 0; start < len(b); start += boundedBytesChunk {
		end := min(start+boundedBytesChunk, len(b))
		chunk, err := cbor.Marshal([]byte(b[start:end]))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		out = append(out, chunk...)
	}
	return append(out, 0xff), nil
}

func (i Integer) MarshalCBOR() ([]byte, error) {
	if i.Value == nil {
		return cbor.Marshal(0)
	}
	return cbor.Marshal(i.Value)
}

func (i Integer) Int64() (int64, bool) {
	if i.Value == nil {
		return 0, true
	}
	return i.Value.Int64(), i.Value.IsInt64()
}

func mustMarshal(v any) cbor.RawMessage {
	encoded, err := cbor.Marshal(v)
	if err != nil {
		panic(err)
	}
	return encoded
}

// The JSON form is the "detailed schema" used by cardano-cli and blueprints.

func (c Constr) MarshalJSON() ([]byte, error) {
	fields := c.Fields
	if fields == nil {
		fields = []PlutusData{}
	}
	return json.Marshal(map[string]any{"constructor": c.Index, "fields": fields})
}

func (b ByteString) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"bytes": HexBytes(b).String()})
}

func (i Integer) MarshalJSON() ([]byte, error) {
	value := i.Value
	if value == nil {
		value = big.NewInt(0)
	}
	return json.Marshal(map[string]any{"int": value})
}

func (l List) MarshalJSON() ([]byte, error) {
	items := []PlutusData(l)
	if items == nil {
		items = []PlutusData{}
	}
	return json.Marshal(map[string]any{"list": items})
}

// DecodePlutusData decodes constructors, byte strings, integers and lists.
// Maps are rejected: no datum or redeemer handled here uses them.
func DecodePlutusData(raw []byte) (PlutusData, error) {
	var decoded any
	if err := cbor.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Wrap(ErrInvalidDatum, err.Error())
	}
	return toPlutusData(decoded)
}

func toPlutusData(v any) (PlutusData, error) {
	switch x := v.(type) {
	case cbor.Tag:
		return constrFromTag(x)
	case []byte:
		return ByteString(x), nil
	case uint64:
		return Integer{Value: new(big.Int).SetUint64(x)}, nil
	case int64:
		return NewInt(x), nil
	case big.Int:
		return Integer{Value: new(big.Int).Set(&x)}, nil
	case []any:
		items := make(List, 0, len(x))
		for _, item := range x {
			pd, err := toPlutusData(item)
			if err != nil {
				return nil, err
			}
			items = append(items, pd)
		}
		return items, nil
	default:
		return nil, errors.Wrapf(ErrInvalidDatum, "unsupported plutus data type %T", v)
	}
}

func constrFromTag(tag cbor.Tag) (PlutusData, error) {
	var index uint64
	content := tag.Content

	switch {
	case tag.Number >= constrTagSmall && tag.Number < constrTagSmall+7:
		index = tag.Number - constrTagSmall
	case tag.Number >= constrTagLarge && tag.Number < constrTagLarge+121:
		index = tag.Number - constrTagLarge + 7
	case tag.Number == constrTagGeneral:
		general, ok := tag.Content.([]any)
		if !ok || len(general) != 2 {
			return nil, errors.Wrap(ErrInvalidDatum, "general constructor must be a 2 item array")
		}
		idx, ok := general[0].(uint64)
		if !ok {
			return nil, errors.Wrap(ErrInvalidDatum, "general constructor index must be unsigned")
		}
		index, content = idx, general[1]
	default:
		return nil, errors.Wrapf(ErrInvalidDatum, "unexpected cbor tag %d", tag.Number)
	}

	raw, ok := content.([]any)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidDatum, "constructor %d fields must be an array", index)
	}

	fields, err := toPlutusData(raw)
	if err != nil {
		return nil, err
	}
	return NewConstr(index, fields.(List)...), nil
}

func (c Constr) expect(index uint64, arity int) error {
	if c.Index != index || len(c.Fields) != arity {
		return errors.Wrapf(ErrInvalidDatum, "expected constructor %d with %d fields, got %d with %d", index, arity, c.Index, len(c.Fields))
	}
	return nil
}

func asConstr(pd PlutusData) (Constr, error) {
	c, ok := pd.(Constr)
	if !ok {
		return Constr{}, errors.Wrapf(ErrInvalidDatum, "expected constructor, got %T", pd)
	}
	return c, nil
}

func asList(pd PlutusData) (List, error) {
	l, ok := pd.(List)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidDatum, "expected list, got %T", pd)
	}
	return l, nil
}

func asBytes(pd PlutusData) (ByteString, error) {
	b, ok := pd.(ByteString)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidDatum, "expected bytes, got %T", pd)
	}
	return b, nil
}

func asInt64(pd PlutusData) (int64, error) {
	i, ok := pd.(Integer)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidDatum, "expected integer, got %T", pd)
	}
	value, fits := i.Int64()
	if !fits {
		return 0, errors.Wrapf(ErrInvalidDatum, "integer %s does not fit in 64 bits", i.Value)
	}
	return value, nil
}
