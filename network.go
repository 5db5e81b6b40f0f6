package cardano

import (
	"time"

	"github.com/pkg/errors"
)

func init() {
	MainNetParams.Name = NetworkMainNet
	MainNetParams.Magic = NetworkMagicMainNet
	MainNetParams.HeaderNetwork = AddressHeaderNetworkMainnet
	MainNetParams.AddressPrefix = "addr"
	MainNetParams.DelegationPrefix = "stake"
	MainNetParams.BlockfrostUrl = "https://cardano-mainnet.blockfrost.io/api/v0"
	MainNetParams.Slots = SlotConfig{
		ZeroTime:   1_596_059_091_000,
		ZeroSlot:   4_492_800,
		SlotLength: 1000,
	}

	PreProdParams.Name = NetworkPreProd
	PreProdParams.Magic = NetworkMagicPreProd
	PreProdParams.HeaderNetwork = AddressHeaderNetworkTestnet
	PreProdParams.AddressPrefix = "addr_test"
	PreProdParams.DelegationPrefix = "stake_test"
	PreProdParams.BlockfrostUrl = "https://cardano-preprod.blockfrost.io/api/v0"
	PreProdParams.Slots = SlotConfig{
		ZeroTime:   1_655_769_600_000,
		ZeroSlot:   86_400,
		SlotLength: 1000,
	}

	PreviewParams.Name = NetworkPreview
	PreviewParams.Magic = NetworkMagicPreview
	PreviewParams.HeaderNetwork = AddressHeaderNetworkTestnet
	PreviewParams.AddressPrefix = "addr_test"
	PreviewParams.DelegationPrefix = "stake_test"
	PreviewParams.BlockfrostUrl = "https://cardano-preview.blockfrost.io/api/v0"
	PreviewParams.Slots = SlotConfig{
		ZeroTime:   1_666_656_000_000,
		ZeroSlot:   0,
		SlotLength: 1000,
	}
}

type NetworkParams struct {
	Name             Network
	Magic            NetworkMagic
	HeaderNetwork    AddressHeaderNetwork
	AddressPrefix    string
	DelegationPrefix string
	BlockfrostUrl    string
	Slots            SlotConfig
}

var MainNetParams = NetworkParams{}
var PreProdParams = NetworkParams{}
var PreviewParams = NetworkParams{}

const (
	NetworkMainNet Network = "mainnet"
	NetworkPreProd Network = "preprod"
	NetworkPreview Network = "preview"
)

type Network string

func (n Network) Valid() bool {
	return n == NetworkMainNet || n == NetworkPreProd || n == NetworkPreview
}

func (n Network) Validate() (err error) {
	if !n.Valid() {
		err = errors.Wrapf(ErrNetworkInvalid, "'%s' (expected mainnet|preprod|preview)", n)
	}
	return
}

func (n Network) Params() (params *NetworkParams, err error) {
	if err = n.Validate(); err != nil {
		return
	}

	switch n {
	case NetworkMainNet:
		return &MainNetParams, nil
	case NetworkPreProd:
		return &PreProdParams, nil
	case NetworkPreview:
		return &PreviewParams, nil
	}

	return
}

type NetworkMagic uint32

const (
	NetworkMagicMainNet NetworkMagic = 764824073
	NetworkMagicPreProd NetworkMagic = 1
	NetworkMagicPreview NetworkMagic = 2
)

// SlotConfig maps POSIX time onto slot numbers for a Shelley-era network.
// ZeroTime and SlotLength are in milliseconds.
type SlotConfig struct {
	ZeroTime   int64
	ZeroSlot   uint64
	SlotLength int64
}

// EnclosingSlot returns the slot containing t. Times before the network's
// zero time map to the zero slot.
func (c SlotConfig) EnclosingSlot(t time.Time) uint64 {
	ms := t.UnixMilli()
	if ms <= c.ZeroTime || c.SlotLength <= 0 {
		return c.ZeroSlot
	}
	return uint64((ms-c.ZeroTime)/c.SlotLength) + c.ZeroSlot
}

// SlotTime returns the start time of slot.
func (c SlotConfig) SlotTime(slot uint64) time.Time {
	if slot < c.ZeroSlot {
		return time.UnixMilli(c.ZeroTime)
	}
	return time.UnixMilli(c.ZeroTime + int64(slot-c.ZeroSlot)*c.SlotLength)
}
