package cardano

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	giftCardValidator = 0
	redeemValidator   = 1
)

// GiftCardDatum is List[param tx hash, param output index, token name hex],
// locked alongside the gift card token at the redeem script address.
type GiftCardDatum struct {
	ParamUtxo TxRef    `json:"paramUtxo"`
	TokenName HexBytes `json:"tokenName"`
}

func (d GiftCardDatum) PlutusData() (PlutusData, error) {
	hash, err := HexBytesFromString(d.ParamUtxo.Hash)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidTransactionId, err.Error())
	}
	return NewList(ByteString(hash), NewInt(int64(d.ParamUtxo.Index)), ByteString(d.TokenName)), nil
}

func DecodeGiftCardDatum(pd PlutusData) (datum GiftCardDatum, err error) {
	list, err := asList(pd)
	if err != nil {
		return
	}
	if len(list) != 3 {
		err = errors.Wrapf(ErrInvalidDatum, "gift card datum has %d fields, expected 3", len(list))
		return
	}

	hash, err := asBytes(list[0])
	if err != nil {
		return
	}
	index, err := asInt64(list[1])
	if err != nil {
		return
	}
	if index < 0 || index > int64(^uint32(0)) {
		err = errors.Wrapf(ErrInvalidDatum, "output index %d out of range", index)
		return
	}
	tokenName, err := asBytes(list[2])
	if err != nil {
		return
	}

	datum = GiftCardDatum{
		ParamUtxo: TxRef{Hash: HexBytes(hash).String(), Index: uint32(index)},
		TokenName: HexBytes(tokenName),
	}
	return
}

// GiftCardScripts are the two templates with their parameters applied.
type GiftCardScripts struct {
	GiftCard      PlutusScript
	PolicyId      HexBytes
	Redeem        PlutusScript
	RedeemAddress Address
}

// GiftCardContract mints a one-off token under a policy parameterised by a
// wallet utxo, and locks the gift value with the token at a redeem script
// parameterised by the token name and policy. Burning the token unlocks it.
type GiftCardContract struct {
	TokenNameHex HexBytes
	ParamUtxo    TxRef

	giftCardTemplate PlutusScript
	redeemTemplate   PlutusScript
	network          Network
	provider         ChainProvider
	log              *zerolog.Logger
}

func NewGiftCardContract(blueprint *Blueprint, net Network, provider ChainProvider) (contract *GiftCardContract, err error) {
	if err = net.Validate(); err != nil {
		return
	}

	giftCard, err := blueprint.Script(giftCardValidator)
	if err != nil {
		err = errors.Wrap(err, "failed to load gift card validator")
		return
	}
	redeem, err := blueprint.Script(redeemValidator)
	if err != nil {
		err = errors.Wrap(err, "failed to load redeem validator")
		return
	}

	contract = &GiftCardContract{
		giftCardTemplate: giftCard,
		redeemTemplate:   redeem,
		network:          net,
		provider:         provider,
		log:              Log(),
	}
	return
}

// WithParams sets the token name and parameter utxo of an existing gift card
// so it can be looked up.
func (c *GiftCardContract) WithParams(tokenNameHex HexBytes, paramUtxo TxRef) *GiftCardContract {
	c.TokenNameHex = tokenNameHex
	c.ParamUtxo = paramUtxo
	return c
}

// Scripts applies tokenNameHex and paramUtxo to both templates.
func (c *GiftCardContract) Scripts(tokenNameHex HexBytes, paramUtxo TxRef) (scripts GiftCardScripts, err error) {
	outRef, err := TxOutRefData(paramUtxo)
	if err != nil {
		return
	}

	if scripts.GiftCard, err = ApplyParams(c.giftCardTemplate, ByteString(tokenNameHex), outRef); err != nil {
		err = errors.Wrap(err, "failed to apply gift card parameters")
		return
	}
	if scripts.PolicyId, err = scripts.GiftCard.Hash(); err != nil {
		return
	}

	if scripts.Redeem, err = ApplyParams(c.redeemTemplate, ByteString(tokenNameHex), ByteString(scripts.PolicyId)); err != nil {
		err = errors.Wrap(err, "failed to apply redeem parameters")
		return
	}
	scripts.RedeemAddress, err = scripts.Redeem.Address(c.network)
	return
}

// CreateGiftCard mints a token named tokenName and locks giftValue together
// with it at the redeem script. The first wallet utxo is spent and becomes
// the policy parameter, making the token unique.
func (c *GiftCardContract) CreateGiftCard(wallet WalletInfo, tokenName string, giftValue Value) (plan *TxPlan, err error) {
	tokenNameHex, err := NewTokenName(tokenName)
	if err != nil {
		return
	}
	if len(wallet.Utxos) == 0 {
		err = errors.Wrapf(ErrNoUtxos, "wallet %s", wallet.Address)
		return
	}
	collateral, err := wallet.RequireCollateral()
	if err != nil {
		return
	}

	first, remaining := wallet.Utxos[0], wallet.Utxos[1:]
	scripts, err := c.Scripts(tokenNameHex, first.Ref)
	if err != nil {
		return
	}

	datum, err := GiftCardDatum{ParamUtxo: first.Ref, TokenName: tokenNameHex}.PlutusData()
	if err != nil {
		return
	}

	locked := giftValue.Add(Asset{PolicyId: scripts.PolicyId, AssetName: tokenNameHex, Quantity: 1})

	c.log.Debug().Msgf("gift card policy %s, redeem address %s", scripts.PolicyId, scripts.RedeemAddress)

	plan = NewTxPlan().
		TxIn(first).
		Mint(1, scripts.PolicyId, tokenNameHex, scripts.GiftCard, NewConstr(0)).
		TxOut(scripts.RedeemAddress.String(), locked, datum).
		ChangeAddress(wallet.Address).
		Collateral(collateral).
		SelectUtxosFrom(remaining)

	if err = plan.Validate(); err != nil {
		return
	}

	c.WithParams(tokenNameHex, first.Ref)
	return
}

// RedeemGiftCard spends the gift card utxo, burning its token. The scripts
// are rebuilt from the utxo's datum so no local state is needed.
func (c *GiftCardContract) RedeemGiftCard(wallet WalletInfo, giftCard Utxo) (plan *TxPlan, err error) {
	pd, err := giftCard.Datum()
	if err != nil {
		return
	}
	datum, err := DecodeGiftCardDatum(pd)
	if err != nil {
		return
	}

	collateral, err := wallet.RequireCollateral()
	if err != nil {
		return
	}

	scripts, err := c.Scripts(datum.TokenName, datum.ParamUtxo)
	if err != nil {
		return
	}

	plan = NewTxPlan().
		SpendScript(giftCard, ByteString{}, scripts.Redeem).
		Mint(-1, scripts.PolicyId, datum.TokenName, scripts.GiftCard, NewConstr(1)).
		ChangeAddress(wallet.Address).
		Collateral(collateral).
		SelectUtxosFrom(wallet.Utxos)

	err = plan.Validate()
	return
}

// GetUtxoByTxHash looks for the gift card created by txHash at the redeem
// address derived from the contract's current parameters.
func (c *GiftCardContract) GetUtxoByTxHash(ctx context.Context, txHash string) (utxo Utxo, err error) {
	if len(c.TokenNameHex) == 0 || c.ParamUtxo.Hash == "" {
		err = errors.Wrap(ErrParamsUnset, "gift card token name and parameter utxo")
		return
	}

	scripts, err := c.Scripts(c.TokenNameHex, c.ParamUtxo)
	if err != nil {
		return
	}
	return lookupScriptUtxo(ctx, c.provider, scripts.Redeem, c.network, txHash)
}
