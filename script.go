package cardano

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

type PlutusVersion int

const (
	PlutusV1 PlutusVersion = 1
	PlutusV2 PlutusVersion = 2
	PlutusV3 PlutusVersion = 3
)

func (v PlutusVersion) String() string {
	switch v {
	case PlutusV1:
		return "PlutusV1"
	case PlutusV2:
		return "PlutusV2"
	case PlutusV3:
		return "PlutusV3"
	default:
		return "unknown"
	}
}

// PlutusScript holds a compiled validator as a cbor byte string wrapping the
// flat encoded program (the form blueprints call "compiledCode").
type PlutusScript struct {
	Version PlutusVersion `json:"version"`
	Cbor    HexBytes      `json:"cborHex"`
}

// NewPlutusScript accepts single or double cbor wrapped code and normalises
// it to the single wrapped form.
func NewPlutusScript(code []byte, version PlutusVersion) (script PlutusScript, err error) {
	if version < PlutusV1 || version > PlutusV3 {
		err = errors.Wrapf(ErrInvalidScript, "unsupported plutus version %d", version)
		return
	}

	var inner []byte
	if err = cbor.Unmarshal(code, &inner); err != nil {
		err = errors.Wrapf(ErrInvalidScript, "compiled code is not a cbor byte string: %v", err)
		return
	}

	var flat []byte
	if cbor.Unmarshal(inner, &flat) == nil && len(flat) > 0 {
		// double wrapped, as produced by cardano-cli text envelopes
		code = inner
	}

	return PlutusScript{Version: version, Cbor: append(HexBytes{}, code...)}, nil
}

func NewPlutusScriptFromHex(code string, version PlutusVersion) (PlutusScript, error) {
	decoded, err := HexBytesFromString(code)
	if err != nil {
		return PlutusScript{}, errors.Wrap(ErrInvalidScript, err.Error())
	}
	return NewPlutusScript(decoded, version)
}

// Flat returns the flat encoded program.
func (s PlutusScript) Flat() (flat []byte, err error) {
	if err = cbor.Unmarshal(s.Cbor, &flat); err != nil {
		err = errors.Wrap(ErrInvalidScript, err.Error())
	}
	return
}

// Hash is blake2b-224 over the language tag followed by the script cbor.
func (s PlutusScript) Hash() (HexBytes, error) {
	if len(s.Cbor) == 0 {
		return nil, errors.Wrap(ErrInvalidScript, "empty script")
	}
	return Blake2bSum224(append([]byte{byte(s.Version)}, s.Cbor...))
}

func (s PlutusScript) Address(net Network) (addr Address, err error) {
	hash, err := s.Hash()
	if err != nil {
		return
	}
	return NewScriptAddress(hash, net)
}

// DoubleCbor returns the script wrapped a second time, the encoding
// cardano-cli and some builders expect in text envelopes.
func (s PlutusScript) DoubleCbor() (HexBytes, error) {
	wrapped, err := cbor.Marshal([]byte(s.Cbor))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return wrapped, nil
}
