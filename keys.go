package cardano

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"os"
	"strings"

	"filippo.io/edwards25519"
	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

const (
	hardened         uint32 = 0x80000000
	purposeCip1852          = 1852 | hardened
	coinTypeAda             = 1815 | hardened
	roleExternal            = 0
	roleStaking             = 2
	extendedKeySize         = 64
	chainCodeSize           = 32
	envelopeKeyType         = "PaymentSigningKeyShelley_ed25519"
	envelopeXKeyType        = "PaymentExtendedSigningKeyShelley_ed25519_bip32"
)

// LoadSecret reads a secret from path when the file exists, otherwise from
// the environment variable env.
func LoadSecret(path, env string) (secret string, err error) {
	if path != "" && FileExists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read secret file '%s'", path)
		}
		if secret = strings.TrimSpace(string(data)); secret != "" {
			return secret, nil
		}
	}

	if secret = strings.TrimSpace(os.Getenv(env)); secret != "" {
		return secret, nil
	}

	return "", errors.Wrapf(ErrSecretNotFound, "provide %s or set %s in the environment", path, env)
}

// SigningKey is either a 32 byte ed25519 seed or a 64 byte BIP32-Ed25519
// extended key (kL || kR).
type SigningKey struct {
	Key       HexBytes
	ChainCode HexBytes
}

func (k SigningKey) Extended() bool {
	return len(k.Key) == extendedKeySize
}

func (k SigningKey) PublicKey() (HexBytes, error) {
	switch len(k.Key) {
	case ed25519.SeedSize:
		return HexBytes(ed25519.NewKeyFromSeed(k.Key).Public().(ed25519.PublicKey)), nil
	case extendedKeySize:
		return extendedPublicKey(k.Key[:32])
	}
	return nil, errors.Wrapf(ErrUnsupportedSecret, "signing key of %d bytes", len(k.Key))
}

func (k SigningKey) KeyHash() (HexBytes, error) {
	pub, err := k.PublicKey()
	if err != nil {
		return nil, err
	}
	return Blake2bSum224(pub)
}

// Derive returns child index of an extended key (BIP32-Ed25519, V2 scheme).
func (k SigningKey) Derive(index uint32) (child SigningKey, err error) {
	if !k.Extended() || len(k.ChainCode) != chainCodeSize {
		err = errors.Wrap(ErrUnsupportedSecret, "only extended keys with a chain code can be derived")
		return
	}

	kL, kR := k.Key[:32], k.Key[32:]
	serialized := binary.LittleEndian.AppendUint32(nil, index)

	var zTag, cTag byte
	var data []byte
	if index >= hardened {
		zTag, cTag, data = 0x00, 0x01, append(append([]byte{}, kL...), kR...)
	} else {
		pub, err := extendedPublicKey(kL)
		if err != nil {
			return child, err
		}
		zTag, cTag, data = 0x02, 0x03, pub
	}

	z := hmacSha512(k.ChainCode, zTag, data, serialized)
	c := hmacSha512(k.ChainCode, cTag, data, serialized)

	key := append(addMul8(kL, z[:28]), add256(kR, z[32:])...)
	return SigningKey{Key: key, ChainCode: c[32:]}, nil
}

func (k SigningKey) DerivePath(path ...uint32) (key SigningKey, err error) {
	key = k
	for _, index := range path {
		if key, err = key.Derive(index); err != nil {
			return
		}
	}
	return
}

func hmacSha512(key []byte, tag byte, data, index []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte{tag})
	mac.Write(data)
	mac.Write(index)
	return mac.Sum(nil)
}

// addMul8 returns x + 8*y for a 32 byte x and 28 byte y, little endian.
func addMul8(x, y []byte) []byte {
	out := make([]byte, 32)
	var carry uint16
	for i := 0; i < 32; i++ {
		r := uint16(x[i]) + carry
		if i < len(y) {
			r += uint16(y[i]) << 3
		}
		out[i] = byte(r)
		carry = r >> 8
	}
	return out
}

func add256(x, y []byte) []byte {
	out := make([]byte, 32)
	var carry uint16
	for i := 0; i < 32; i++ {
		r := uint16(x[i]) + uint16(y[i]) + carry
		out[i] = byte(r)
		carry = r >> 8
	}
	return out
}

// extendedPublicKey multiplies the base point by the already clamped scalar
// kL. The scalar is reduced mod l first, which leaves the point unchanged.
func extendedPublicKey(kL []byte) (HexBytes, error) {
	wide := make([]byte, 64)
	copy(wide, kL)
	scalar, err := new(edwards25519.Scalar).SetUniformBytes(wide)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return new(edwards25519.Point).ScalarBaseMult(scalar).Bytes(), nil
}

// WalletSecret is a parsed wallet secret. Mnemonic and root key wallets carry
// a stake key and resolve to base addresses, single keys to enterprise ones.
type WalletSecret struct {
	Mnemonic string
	Payment  SigningKey
	Stake    *SigningKey
}

// ParseWalletSecret accepts a BIP39 mnemonic, a root_xsk / addr_xsk / addr_sk
// bech32 key, or a cardano-cli signing key text envelope.
func ParseWalletSecret(secret string) (wallet WalletSecret, err error) {
	secret = strings.TrimSpace(secret)

	switch {
	case secret == "":
		err = errors.Wrap(ErrSecretNotFound, "secret is empty")
		return
	case strings.HasPrefix(secret, "{"):
		wallet.Payment, err = parseKeyEnvelope(secret)
		return
	case strings.Count(secret, " ") >= 11:
		return walletFromMnemonic(secret)
	}

	prefix, data, decodeErr := bech32.DecodeAndConvert(secret)
	if decodeErr != nil {
		err = errors.Wrap(ErrUnsupportedSecret, "expected a mnemonic, bech32 signing key or key envelope")
		return
	}

	switch prefix {
	case "root_xsk":
		if len(data) != extendedKeySize+chainCodeSize {
			err = errors.Wrapf(ErrUnsupportedSecret, "root key of %d bytes", len(data))
			return
		}
		return walletFromRoot(SigningKey{Key: data[:extendedKeySize], ChainCode: data[extendedKeySize:]})
	case "addr_xsk":
		if len(data) != extendedKeySize+chainCodeSize {
			err = errors.Wrapf(ErrUnsupportedSecret, "payment key of %d bytes", len(data))
			return
		}
		wallet.Payment = SigningKey{Key: data[:extendedKeySize], ChainCode: data[extendedKeySize:]}
	case "addr_sk", "ed25519_sk":
		if len(data) != ed25519.SeedSize {
			err = errors.Wrapf(ErrUnsupportedSecret, "payment key of %d bytes", len(data))
			return
		}
		wallet.Payment = SigningKey{Key: data}
	default:
		err = errors.Wrapf(ErrUnsupportedSecret, "bech32 prefix '%s'", prefix)
	}
	return
}

func walletFromMnemonic(mnemonic string) (wallet WalletSecret, err error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		err = errors.Wrap(ErrUnsupportedSecret, "invalid mnemonic")
		return
	}

	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		err = errors.Wrap(ErrUnsupportedSecret, err.Error())
		return
	}

	// icarus master key generation
	master := pbkdf2.Key(nil, entropy, 4096, extendedKeySize+chainCodeSize, sha512.New)
	master[0] &= 0xf8
	master[31] &= 0x1f
	master[31] |= 0x40

	wallet, err = walletFromRoot(SigningKey{Key: master[:extendedKeySize], ChainCode: master[extendedKeySize:]})
	wallet.Mnemonic = mnemonic
	return
}

// walletFromRoot derives the first account's payment and stake keys,
// m/1852'/1815'/0'/{0,2}/0.
func walletFromRoot(root SigningKey) (wallet WalletSecret, err error) {
	account, err := root.DerivePath(purposeCip1852, coinTypeAda, hardened)
	if err != nil {
		return
	}
	if wallet.Payment, err = account.DerivePath(roleExternal, 0); err != nil {
		return
	}
	stake, err := account.DerivePath(roleStaking, 0)
	if err != nil {
		return
	}
	wallet.Stake = &stake
	return
}

func parseKeyEnvelope(envelope string) (key SigningKey, err error) {
	if !gjson.Valid(envelope) {
		err = errors.Wrap(ErrUnsupportedSecret, "key envelope is not valid json")
		return
	}

	parsed := gjson.Parse(envelope)
	typ := parsed.Get("type").String()
	raw, err := HexBytesFromString(parsed.Get("cborHex").String())
	if err != nil {
		err = errors.Wrap(ErrUnsupportedSecret, err.Error())
		return
	}

	var payload []byte
	if err = cbor.Unmarshal(raw, &payload); err != nil {
		err = errors.Wrapf(ErrUnsupportedSecret, "key envelope cbor: %v", err)
		return
	}

	switch {
	case typ == envelopeKeyType && len(payload) == ed25519.SeedSize:
		key = SigningKey{Key: payload}
	case typ == envelopeXKeyType && len(payload) == 128:
		// kL || kR || public key || chain code
		key = SigningKey{Key: payload[:64], ChainCode: payload[96:]}
	default:
		err = errors.Wrapf(ErrUnsupportedSecret, "key envelope type '%s' with %d byte payload", typ, len(payload))
	}
	return
}

// Address returns the wallet's first address on net.
func (w WalletSecret) Address(net Network) (addr Address, err error) {
	payment, err := w.Payment.KeyHash()
	if err != nil {
		return
	}
	if w.Stake == nil {
		return NewEnterpriseAddress(payment, net)
	}
	stake, err := w.Stake.KeyHash()
	if err != nil {
		return
	}
	return NewBaseAddress(payment, stake, net)
}
