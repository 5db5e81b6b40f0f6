package cardano

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/Salvionied/apollo"
	"github.com/Salvionied/apollo/constants"
	apolloaddr "github.com/Salvionied/apollo/serialization/Address"
	apollokey "github.com/Salvionied/apollo/serialization/Key"
	apollodata "github.com/Salvionied/apollo/serialization/PlutusData"
	"github.com/Salvionied/apollo/serialization/Redeemer"
	"github.com/Salvionied/apollo/serialization/UTxO"
	"github.com/Salvionied/apollo/txBuilding/Backend/BlockFrostChainContext"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ApolloBuilder executes plans with the apollo transaction builder, which
// selects inputs, balances and estimates script budgets. Signing happens here
// with the wallet's own key so extended (BIP32-Ed25519) keys are supported.
type ApolloBuilder struct {
	chain      BlockFrostChainContext.BlockFrostChainContext
	fetchUtxos func(apolloaddr.Address) ([]UTxO.UTxO, error)
	network    Network
	wallet     WalletSecret
	address    Address
	log        *zerolog.Logger
}

func NewApolloBuilder(config *Config, wallet WalletSecret) (builder *ApolloBuilder, err error) {
	params, err := config.Network.Params()
	if err != nil {
		return
	}

	baseUrl := config.BlockfrostUrl
	if baseUrl == "" {
		baseUrl = params.BlockfrostUrl
	}

	chain, err := BlockFrostChainContext.NewBlockfrostChainContext(baseUrl, int(apolloNetwork(config.Network)), config.BlockfrostProjectId)
	if err != nil {
		err = errors.Wrap(err, "failed to create blockfrost chain context")
		return
	}

	address, err := wallet.Address(config.Network)
	if err != nil {
		return
	}

	builder = &ApolloBuilder{
		chain:   chain,
		network: config.Network,
		wallet:  wallet,
		address: address,
		log:     Log(),
	}
	builder.fetchUtxos = builder.chain.Utxos
	return
}

func apolloNetwork(net Network) constants.Network {
	switch net {
	case NetworkPreProd:
		return constants.PREPROD
	case NetworkPreview:
		return constants.PREVIEW
	default:
		return constants.MAINNET
	}
}

func (b *ApolloBuilder) WalletAddress() string {
	return b.address.String()
}

// newTx starts a transaction whose wallet is only the builder's address;
// apollo never sees the signing key.
func (b *ApolloBuilder) newTx() (tx *apollo.Apollo, err error) {
	tx = apollo.New(&b.chain).SetWalletFromBech32(b.address.String())
	if tx.GetWallet() == nil {
		err = errors.Wrapf(ErrInvalidAddress, "wallet address %s", b.address)
	}
	return
}

// apolloSigningKey converts a signing key to the payload apollo signs with:
// the 64 byte ed25519 private key for seeds, kL || kR || chain code for
// extended keys.
func apolloSigningKey(key SigningKey) (skey apollokey.SigningKey, err error) {
	switch len(key.Key) {
	case ed25519.SeedSize:
		return apollokey.SigningKey{Payload: ed25519.NewKeyFromSeed(key.Key)}, nil
	case extendedKeySize:
		payload := make([]byte, extendedKeySize+chainCodeSize)
		copy(payload, key.Key)
		copy(payload[extendedKeySize:], key.ChainCode)
		return apollokey.SigningKey{Payload: payload}, nil
	}
	err = errors.Wrapf(ErrUnsupportedSecret, "signing key of %d bytes", len(key.Key))
	return
}

func (b *ApolloBuilder) sign(tx *apollo.Apollo) (*apollo.Apollo, error) {
	vkey, err := b.wallet.Payment.PublicKey()
	if err != nil {
		return nil, err
	}
	skey, err := apolloSigningKey(b.wallet.Payment)
	if err != nil {
		return nil, err
	}
	if tx, err = tx.SignWithSkey(apollokey.VerificationKey{Payload: vkey}, skey); err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}
	return tx, nil
}

// Build applies the plan's directives in order, completes, and signs.
func (b *ApolloBuilder) Build(_ context.Context, plan *TxPlan) (signed *SignedTx, err error) {
	if err = plan.Validate(); err != nil {
		return
	}

	tx, err := b.newTx()
	if err != nil {
		err = errors.Wrap(err, "failed to load wallet into tx builder")
		return
	}

	index := newApolloUtxoIndex(b.fetchUtxos)

	for _, d := range plan.Directives {
		b.log.Debug().Msgf("applying %s directive", d.Kind())

		if tx, err = b.apply(tx, index, d); err != nil {
			err = errors.Wrapf(err, "failed to apply %s", d.Kind())
			return
		}
	}

	if tx, err = tx.Complete(); err != nil {
		err = errors.Wrap(err, "failed to complete transaction")
		return
	}

	if tx, err = b.sign(tx); err != nil {
		return
	}

	raw, err := tx.GetTx().Bytes()
	if err != nil {
		err = errors.Wrap(err, "failed to serialise transaction")
		return
	}

	return NewSignedTx(raw)
}

func (b *ApolloBuilder) apply(tx *apollo.Apollo, index *apolloUtxoIndex, d Directive) (*apollo.Apollo, error) {
	switch x := d.(type) {
	case TxIn:
		u, err := index.resolve(x.Utxo)
		if err != nil {
			return nil, err
		}
		return tx.AddInput(u), nil

	case ScriptTxIn:
		u, err := index.resolve(x.Utxo)
		if err != nil {
			return nil, err
		}
		redeemer, err := apolloRedeemer(Redeemer.SPEND, x.Redeemer)
		if err != nil {
			return nil, err
		}
		return tx.CollectFrom(u, redeemer), nil

	case TxInScript:
		return tx.AttachV2Script(apollodata.PlutusV2Script(x.Script.Cbor)), nil

	case Mint:
		redeemer, err := apolloRedeemer(Redeemer.MINT, x.Redeemer)
		if err != nil {
			return nil, err
		}
		unit := apollo.NewUnit(x.PolicyId.String(), string(x.AssetName), int(x.Quantity))
		return tx.AttachV2Script(apollodata.PlutusV2Script(x.Script.Cbor)).MintAssetsWithRedeemer(unit, redeemer), nil

	case TxOut:
		addr, err := apolloaddr.DecodeAddress(x.Address)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidAddress, "%s: %v", x.Address, err)
		}
		units := apolloUnits(x.Value)
		if x.InlineDatum == nil {
			return tx.PayToAddress(addr, int(x.Value.Lovelace), units...), nil
		}
		datum, err := apolloPlutusData(x.InlineDatum)
		if err != nil {
			return nil, err
		}
		return tx.PayToContract(addr, &datum, int(x.Value.Lovelace), true, units...), nil

	case ChangeAddress:
		addr, err := apolloaddr.DecodeAddress(x.Address)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidAddress, "%s: %v", x.Address, err)
		}
		return tx.SetChangeAddress(addr), nil

	case Collateral:
		u, err := index.resolve(x.Utxo)
		if err != nil {
			return nil, err
		}
		return tx.AddCollateral(u), nil

	case InvalidBefore:
		return tx.SetValidityStart(int64(x.Slot)), nil

	case RequiredSigner:
		addr, err := apolloaddr.DecodeAddress(b.address.String())
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if !HexBytes(b.addressKeyHash()).Equal(x.KeyHash) {
			return nil, errors.Wrapf(ErrNotAuthorized, "required signer %s is not the builder wallet", x.KeyHash)
		}
		return tx.AddRequiredSignerFromAddress(addr, true, false), nil

	case SelectUtxosFrom:
		var utxos []UTxO.UTxO
		for _, utxo := range x.Utxos {
			u, err := index.resolve(utxo)
			if err != nil {
				return nil, err
			}
			utxos = append(utxos, u)
		}
		return tx.AddLoadedUTxOs(utxos...), nil
	}

	return nil, errors.Wrapf(ErrInvalidPlan, "unsupported directive %T", d)
}

func (b *ApolloBuilder) addressKeyHash() []byte {
	hash, _ := b.address.PaymentKeyHash()
	return hash
}

func apolloUnits(value Value) (units []apollo.Unit) {
	for _, a := range value.Assets {
		units = append(units, apollo.NewUnit(a.PolicyId.String(), string(a.AssetName), int(a.Quantity)))
	}
	return
}

// apolloUtxoIndex resolves utxos through the chain context so apollo receives
// its own complete representation (value, datum and script ref). Each address
// is fetched at most once.
type apolloUtxoIndex struct {
	fetch     func(apolloaddr.Address) ([]UTxO.UTxO, error)
	byAddress map[string]map[string]UTxO.UTxO
}

func newApolloUtxoIndex(fetch func(apolloaddr.Address) ([]UTxO.UTxO, error)) *apolloUtxoIndex {
	return &apolloUtxoIndex{fetch: fetch, byAddress: map[string]map[string]UTxO.UTxO{}}
}

func apolloUtxoKey(hash string, index int) string {
	return fmt.Sprintf("%s:%d", hash, index)
}

func (i *apolloUtxoIndex) resolve(utxo Utxo) (u UTxO.UTxO, err error) {
	utxos, ok := i.byAddress[utxo.Address]
	if !ok {
		addr, decodeErr := apolloaddr.DecodeAddress(utxo.Address)
		if decodeErr != nil {
			err = errors.Wrapf(ErrInvalidAddress, "%s: %v", utxo.Address, decodeErr)
			return
		}

		fetched, fetchErr := i.fetch(addr)
		if fetchErr != nil {
			err = errors.Wrapf(ErrRpcFailed, "utxos for %s: %v", utxo.Address, fetchErr)
			return
		}

		utxos = make(map[string]UTxO.UTxO, len(fetched))
		for _, candidate := range fetched {
			utxos[candidate.GetKey()] = candidate
		}
		i.byAddress[utxo.Address] = utxos
	}

	if u, ok = utxos[apolloUtxoKey(utxo.Ref.Hash, int(utxo.Ref.Index))]; !ok {
		err = errors.Wrapf(ErrUtxoNotFound, "%s", utxo.Ref)
	}
	return
}

func apolloPlutusData(pd PlutusData) (out apollodata.PlutusData, err error) {
	encoded, err := pd.MarshalCBOR()
	if err != nil {
		return
	}
	if err = out.UnmarshalCBOR(encoded); err != nil {
		err = errors.Wrap(err, "failed to convert plutus data")
	}
	return
}

func apolloRedeemer(tag Redeemer.RedeemerTag, pd PlutusData) (redeemer Redeemer.Redeemer, err error) {
	data, err := apolloPlutusData(pd)
	if err != nil {
		return
	}
	return Redeemer.Redeemer{Tag: tag, Data: data}, nil
}
