package cardano

import (
	"encoding/hex"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/pkg/errors"
)

const (
	LovelaceUnit      = "lovelace"
	LovelacePerAda    = 1_000_000
	MaxAssetNameBytes = 32
)

type Asset struct {
	PolicyId  HexBytes `json:"policyId"`
	AssetName HexBytes `json:"assetName"`
	Quantity  uint64   `json:"quantity"`
}

// Unit is the policy id followed by the hex asset name, as used by indexers.
func (a Asset) Unit() string {
	return a.PolicyId.String() + a.AssetName.String()
}

func (a Asset) Fingerprint() (string, error) {
	return AssetFingerprint(a.PolicyId, a.AssetName)
}

// ParseUnit splits an indexer unit string into policy id and asset name.
func ParseUnit(unit string) (policyId, assetName HexBytes, err error) {
	if len(unit) < 2*KeyHashSize {
		err = errors.Errorf("asset unit '%s' is shorter than a policy id", unit)
		return
	}
	if policyId, err = HexBytesFromString(unit[:2*KeyHashSize]); err != nil {
		return
	}
	if assetName, err = HexBytesFromString(unit[2*KeyHashSize:]); err != nil {
		return
	}
	if len(assetName) > MaxAssetNameBytes {
		err = errors.Wrapf(ErrInvalidTokenName, "asset name longer than %d bytes", MaxAssetNameBytes)
	}
	return
}

type Value struct {
	Lovelace uint64  `json:"lovelace"`
	Assets   []Asset `json:"assets,omitempty"`
}

func LovelaceValue(lovelace uint64) Value {
	return Value{Lovelace: lovelace}
}

// Add returns a copy of v holding asset on top of the existing assets.
func (v Value) Add(asset Asset) Value {
	out := Value{Lovelace: v.Lovelace, Assets: make([]Asset, 0, len(v.Assets)+1)}
	merged := false
	for _, existing := range v.Assets {
		if existing.Unit() == asset.Unit() {
			existing.Quantity += asset.Quantity
			merged = true
		}
		out.Assets = append(out.Assets, existing)
	}
	if !merged {
		out.Assets = append(out.Assets, asset)
	}
	sort.Slice(out.Assets, func(i, j int) bool {
		return out.Assets[i].Unit() < out.Assets[j].Unit()
	})
	return out
}

func (v Value) IsLovelaceOnly() bool {
	return len(v.Assets) == 0
}

// Quantity returns the amount held for unit ("lovelace" or policy+name hex).
func (v Value) Quantity(unit string) uint64 {
	if unit == LovelaceUnit {
		return v.Lovelace
	}
	for _, a := range v.Assets {
		if a.Unit() == unit {
			return a.Quantity
		}
	}
	return 0
}

// AdaToLovelace converts a user supplied ADA amount, truncating below one
// lovelace. Zero, negative and non-finite amounts are rejected.
func AdaToLovelace(ada float64) (lovelace uint64, err error) {
	if math.IsNaN(ada) || math.IsInf(ada, 0) || ada <= 0 {
		err = errors.Wrapf(ErrInvalidAmount, "got %v", ada)
		return
	}
	scaled := math.Floor(ada * LovelacePerAda)
	if scaled < 1 || scaled > math.MaxInt64 {
		err = errors.Wrapf(ErrInvalidAmount, "got %v", ada)
		return
	}
	return uint64(scaled), nil
}

// ParseAda parses a decimal ADA amount string.
func ParseAda(s string) (uint64, error) {
	ada, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidAmount, "'%s' is not a number", s)
	}
	return AdaToLovelace(ada)
}

// AssetFingerprint implements CIP-14.
func AssetFingerprint(policyId, assetName []byte) (fingerprint string, err error) {
	hash, err := Blake2bSum160(append(append([]byte{}, policyId...), assetName...))
	if err != nil {
		return
	}

	converted, err := bech32.ConvertBits(hash, 8, 5, true)
	if err != nil {
		err = errors.Wrap(err, "failed to convert bits")
		return
	}

	fingerprint, err = bech32.Encode("asset", converted)
	if err != nil {
		err = errors.Wrap(err, "failed to encode asset fingerprint")
	}
	return
}

// NewTokenName validates a human readable token name and returns its bytes.
func NewTokenName(name string) (HexBytes, error) {
	if name == "" || len(name) > MaxAssetNameBytes {
		return nil, errors.Wrapf(ErrInvalidTokenName, "'%s' must be 1 to %d bytes", name, MaxAssetNameBytes)
	}
	return HexBytes(name), nil
}

func (a Asset) DisplayName() string {
	for _, r := range string(a.AssetName) {
		if r < 0x20 || r > 0x7e {
			return hex.EncodeToString(a.AssetName)
		}
	}
	return string(a.AssetName)
}
