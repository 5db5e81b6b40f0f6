package cardano

import (
	"encoding/json"
	"fmt"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Address is a raw Shelley address: one header byte followed by the payment
// and (optionally) delegation credentials.
type Address []byte

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) (err error) {
	var s string
	if err = json.Unmarshal(data, &s); err != nil {
		return errors.WithStack(err)
	}
	*a, err = DecodeAddress(s)
	return
}

// String returns the bech32 encoding, or hex when the header is invalid.
func (a Address) String() string {
	encoded, err := a.Bech32String()
	if err != nil {
		return HexBytes(a).String()
	}
	return encoded
}

func (a Address) Bech32String() (encoded string, err error) {
	prefix, err := a.prefix()
	if err != nil {
		return
	}

	encoded, err = bech32.ConvertAndEncode(prefix, a)
	if err != nil {
		err = errors.Errorf("failed to convert to bech32: %+v", err)
	}
	return
}

func (a Address) prefix() (prefix string, err error) {
	typ, err := a.Type()
	if err != nil {
		return
	}
	network, err := a.Network()
	if err != nil {
		return
	}

	mainnet := network == AddressHeaderNetworkMainnet
	switch {
	case typ.IsReward() && mainnet:
		prefix = MainNetParams.DelegationPrefix
	case typ.IsReward():
		prefix = PreProdParams.DelegationPrefix
	case mainnet:
		prefix = MainNetParams.AddressPrefix
	default:
		prefix = PreProdParams.AddressPrefix
	}
	return
}

func (a Address) Header() (header AddressHeader, err error) {
	if len(a) == 0 {
		err = errors.Wrap(ErrInvalidAddress, "cannot get header for empty address")
		return
	}
	header = AddressHeader(a[0])
	return
}

func (a Address) Type() (typ AddressType, err error) {
	header, err := a.Header()
	if err != nil {
		return
	}
	return header.Type()
}

func (a Address) Network() (net AddressHeaderNetwork, err error) {
	header, err := a.Header()
	if err != nil {
		return
	}
	return header.Network()
}

// PaymentCredential returns the 28 byte key or script hash of the payment part.
func (a Address) PaymentCredential() (credential HexBytes, err error) {
	typ, err := a.Type()
	if err != nil {
		return
	}
	if typ.IsReward() {
		err = errors.Wrapf(ErrInvalidAddress, "%s address has no payment part", typ)
		return
	}
	if len(a) < 1+KeyHashSize {
		err = errors.Wrapf(ErrInvalidAddress, "address too short: %d bytes", len(a))
		return
	}
	return HexBytes(a[1 : 1+KeyHashSize]), nil
}

// PaymentKeyHash returns the payment key hash, failing for script addresses.
func (a Address) PaymentKeyHash() (hash HexBytes, err error) {
	typ, err := a.Type()
	if err != nil {
		return
	}
	if typ.IsScriptPayment() {
		err = errors.Wrapf(ErrNotKeyAddress, "%s", a)
		return
	}
	return a.PaymentCredential()
}

// StakeCredential returns the delegation part of base addresses and the
// credential of reward addresses. It is nil for enterprise and pointer
// addresses.
func (a Address) StakeCredential() (credential HexBytes, err error) {
	typ, err := a.Type()
	if err != nil {
		return
	}
	switch {
	case typ.IsReward():
		if len(a) < 1+KeyHashSize {
			err = errors.Wrapf(ErrInvalidAddress, "address too short: %d bytes", len(a))
			return
		}
		return HexBytes(a[1 : 1+KeyHashSize]), nil
	case typ <= AddressTypeScriptAndScript:
		if len(a) < 1+2*KeyHashSize {
			err = errors.Wrapf(ErrInvalidAddress, "address too short: %d bytes", len(a))
			return
		}
		return HexBytes(a[1+KeyHashSize : 1+2*KeyHashSize]), nil
	}
	return
}

func (a Address) IsScript() bool {
	typ, err := a.Type()
	return err == nil && typ.IsScriptPayment()
}

func (a Address) IsForNetwork(params *NetworkParams) bool {
	network, err := a.Network()
	return err == nil && network == params.HeaderNetwork
}

func (a Address) Equal(other Address) bool {
	return HexBytes(a).Equal(other)
}

// DecodeAddress parses a bech32 Shelley address. Byron (base58) addresses
// are recognised and rejected with ErrByronAddress.
func DecodeAddress(encoded string) (addr Address, err error) {
	prefix, data, err := bech32.DecodeAndConvert(encoded)
	if err != nil {
		if isByronAddress(encoded) {
			err = errors.Wrapf(ErrByronAddress, "'%s'", encoded)
			return
		}
		err = errors.Wrapf(ErrInvalidAddress, "failed to decode bech32 address '%s': %+v", encoded, err)
		return
	}

	addr = data
	header, err := addr.Header()
	if err != nil {
		return
	}
	if err = header.Validate(); err != nil {
		return
	}

	expected, err := addr.prefix()
	if err != nil {
		return
	}
	if prefix != expected {
		err = errors.Wrapf(ErrInvalidAddress, "expected prefix '%s' for %s, got '%s'", expected, header, prefix)
		return
	}

	return
}

func isByronAddress(encoded string) bool {
	decoded, err := base58.Decode(encoded)
	if err != nil || len(decoded) == 0 {
		return false
	}
	// byron addresses are a cbor array of [tag 24 payload, crc32]
	return decoded[0] == 0x82
}

func newAddress(typ AddressType, net Network, parts ...[]byte) (addr Address, err error) {
	params, err := net.Params()
	if err != nil {
		return
	}

	for _, part := range parts {
		if len(part) != KeyHashSize {
			err = errors.Wrapf(ErrInvalidAddress, "expected a %d byte credential, got %d bytes", KeyHashSize, len(part))
			return
		}
	}

	header := NewAddressHeader(typ, params.HeaderNetwork)
	addr = Address{byte(header)}
	for _, part := range parts {
		addr = append(addr, part...)
	}
	return
}

func NewEnterpriseAddress(keyHash []byte, net Network) (Address, error) {
	return newAddress(AddressTypePayment, net, keyHash)
}

func NewBaseAddress(keyHash, stakeHash []byte, net Network) (Address, error) {
	return newAddress(AddressTypePaymentAndStake, net, keyHash, stakeHash)
}

// NewScriptAddress returns the enterprise address locked by scriptHash, the
// form used for every contract address in this package.
func NewScriptAddress(scriptHash []byte, net Network) (Address, error) {
	return newAddress(AddressTypeScript, net, scriptHash)
}

const (
	AddressTypePaymentAndStake   AddressType = 0
	AddressTypeScriptAndStake    AddressType = 1
	AddressTypePaymentAndScript  AddressType = 2
	AddressTypeScriptAndScript   AddressType = 3
	AddressTypePaymentAndPointer AddressType = 4
	AddressTypeScriptAndPointer  AddressType = 5
	AddressTypePayment           AddressType = 6
	AddressTypeScript            AddressType = 7
	AddressTypeStakeReward       AddressType = 14
	AddressTypeScriptReward      AddressType = 15
)

// AddressType is the high nibble of the address header.
type AddressType byte

func (a AddressType) String() string {
	switch a {
	case AddressTypePaymentAndStake:
		return "payment and stake"
	case AddressTypeScriptAndStake:
		return "script and stake"
	case AddressTypePaymentAndScript:
		return "payment and script"
	case AddressTypeScriptAndScript:
		return "script and script"
	case AddressTypePaymentAndPointer:
		return "payment and pointer"
	case AddressTypeScriptAndPointer:
		return "script and pointer"
	case AddressTypePayment:
		return "payment"
	case AddressTypeScript:
		return "script"
	case AddressTypeStakeReward:
		return "stake reward"
	case AddressTypeScriptReward:
		return "script reward"
	default:
		return "invalid"
	}
}

func (a AddressType) Valid() bool {
	return a <= AddressTypeScript || a == AddressTypeStakeReward || a == AddressTypeScriptReward
}

func (a AddressType) IsReward() bool {
	return a == AddressTypeStakeReward || a == AddressTypeScriptReward
}

// IsScriptPayment reports whether the payment credential is a script hash.
func (a AddressType) IsScriptPayment() bool {
	return a.Valid() && !a.IsReward() && a&1 == 1
}

const (
	AddressHeaderNetworkTestnet AddressHeaderNetwork = 0
	AddressHeaderNetworkMainnet AddressHeaderNetwork = 1
)

type (
	AddressHeader        byte
	AddressHeaderNetwork byte
)

func (a AddressHeaderNetwork) String() string {
	switch a {
	case AddressHeaderNetworkTestnet:
		return "testnet"
	case AddressHeaderNetworkMainnet:
		return "mainnet"
	default:
		return "unknown"
	}
}

func NewAddressHeader(typ AddressType, network AddressHeaderNetwork) AddressHeader {
	return AddressHeader(byte(typ)<<4 | byte(network)&0x0f)
}

func (a AddressHeader) String() string {
	typ, err := a.Type()
	if err != nil {
		return fmt.Sprintf("%08b (invalid)", byte(a))
	}
	network, err := a.Network()
	if err != nil {
		return fmt.Sprintf("%08b (invalid)", byte(a))
	}
	return fmt.Sprintf("%s/%s | 0x%x | %08b", typ, network, byte(a), byte(a))
}

func (a AddressHeader) Type() (typ AddressType, err error) {
	typ = AddressType(byte(a) >> 4)
	if !typ.Valid() {
		err = errors.Wrapf(ErrInvalidAddress, "invalid type bits in address header: %08b", byte(a))
	}
	return
}

func (a AddressHeader) Network() (network AddressHeaderNetwork, err error) {
	network = AddressHeaderNetwork(byte(a) & 0x0f)
	if network != AddressHeaderNetworkMainnet && network != AddressHeaderNetworkTestnet {
		err = errors.Wrapf(ErrInvalidAddress, "invalid network bits in address header: %08b", byte(a))
	}
	return
}

func (a AddressHeader) Validate() (err error) {
	if _, err = a.Network(); err != nil {
		return
	}
	_, err = a.Type()
	return
}

func (a AddressHeader) Valid() bool {
	return a.Validate() == nil
}
