package cardano

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGiftCardContract(t *testing.T, provider ChainProvider) *GiftCardContract {
	t.Helper()
	contract, err := NewGiftCardContract(testBlueprint(t, 2), NetworkPreProd, provider)
	require.Nil(t, err)
	return contract
}

func TestGiftCardContract_Scripts(t *testing.T) {
	contract := testGiftCardContract(t, &fakeProvider{})

	scripts, err := contract.Scripts(HexBytes("GIFT"), TxRef{Hash: testTxHash(0xaa), Index: 1})
	require.Nil(t, err)
	assert.Equal(t, "83879549e765f763995700acee24c90f761d838af1cb50bd261c400d", scripts.PolicyId.String())
	assert.Equal(t, "ddd1e704281b4ffbb24c35cc564311fb9e1a99625965a796a64fe507", mustHash(t, scripts.Redeem))
	assert.Equal(t, "addr_test1wrwarecy9qd5l7ajfs6uc4jrz8aeux5evfvktfuk5e872pceap6ft", scripts.RedeemAddress.String())

	other, err := contract.Scripts(HexBytes("GIFT"), TxRef{Hash: testTxHash(0xaa), Index: 2})
	require.Nil(t, err)
	assert.NotEqual(t, scripts.PolicyId, other.PolicyId)

	_, err = contract.Scripts(HexBytes("GIFT"), TxRef{Hash: "nothex"})
	assert.ErrorIs(t, err, ErrInvalidTransactionId)
}

func TestNewGiftCardContract_MissingValidator(t *testing.T) {
	_, err := NewGiftCardContract(testBlueprint(t, 1), NetworkPreProd, &fakeProvider{})
	assert.ErrorIs(t, err, ErrValidatorNotFound)

	_, err = NewGiftCardContract(testBlueprint(t, 2), Network("devnet"), &fakeProvider{})
	assert.ErrorIs(t, err, ErrNetworkInvalid)
}

func TestGiftCardContract_CreateGiftCard(t *testing.T) {
	contract := testGiftCardContract(t, &fakeProvider{})
	wallet := testWallet(testOwnerAddress, 3_000_000, 20_000_000, 6_000_000)

	plan, err := contract.CreateGiftCard(wallet, "GIFT", LovelaceValue(10_000_000))
	require.Nil(t, err)
	assert.Equal(t, []DirectiveKind{
		DirectiveTxIn,
		DirectiveMint,
		DirectiveTxOut,
		DirectiveChangeAddress,
		DirectiveCollateral,
		DirectiveSelectUtxosFrom,
	}, plan.Kinds())

	first := wallet.Utxos[0]
	scripts, err := contract.Scripts(HexBytes("GIFT"), first.Ref)
	require.Nil(t, err)

	assert.Equal(t, first, plan.Directives[0].(TxIn).Utxo)

	mint := plan.Directives[1].(Mint)
	assert.Equal(t, int64(1), mint.Quantity)
	assert.Equal(t, scripts.PolicyId, mint.PolicyId)
	assert.Equal(t, "GIFT", string(mint.AssetName))
	assert.Equal(t, scripts.GiftCard, mint.Script)
	assert.Equal(t, "d87980", encodeHex(t, mint.Redeemer))

	out := plan.Directives[2].(TxOut)
	assert.Equal(t, scripts.RedeemAddress.String(), out.Address)
	assert.Equal(t, uint64(10_000_000), out.Value.Lovelace)
	assert.Equal(t, uint64(1), out.Value.Quantity(scripts.PolicyId.String()+HexBytes("GIFT").String()))

	datum, err := DecodeGiftCardDatum(out.InlineDatum)
	require.Nil(t, err)
	assert.Equal(t, GiftCardDatum{ParamUtxo: first.Ref, TokenName: HexBytes("GIFT")}, datum)

	assert.Equal(t, uint64(6_000_000), plan.Directives[4].(Collateral).Utxo.Value.Lovelace)
	assert.Equal(t, wallet.Utxos[1:], plan.Directives[5].(SelectUtxosFrom).Utxos)

	// the contract now refers to the created gift card
	assert.Equal(t, HexBytes("GIFT"), contract.TokenNameHex)
	assert.Equal(t, first.Ref, contract.ParamUtxo)
}

func TestGiftCardContract_CreateGiftCard_Invalid(t *testing.T) {
	contract := testGiftCardContract(t, &fakeProvider{})

	_, err := contract.CreateGiftCard(testWallet(testOwnerAddress, 20_000_000), "", LovelaceValue(1))
	assert.ErrorIs(t, err, ErrInvalidTokenName)

	_, err = contract.CreateGiftCard(WalletInfo{Address: testOwnerAddress}, "GIFT", LovelaceValue(1))
	assert.ErrorIs(t, err, ErrNoUtxos)

	_, err = contract.CreateGiftCard(testWallet(testOwnerAddress, 2_000_000), "GIFT", LovelaceValue(1))
	assert.ErrorIs(t, err, ErrNoCollateral)
}

func TestGiftCardContract_RedeemGiftCard(t *testing.T) {
	creator := testGiftCardContract(t, &fakeProvider{})
	createPlan, err := creator.CreateGiftCard(testWallet(testOwnerAddress, 20_000_000, 6_000_000), "GIFT", LovelaceValue(10_000_000))
	require.Nil(t, err)

	out := createPlan.Directives[2].(TxOut)
	datum, err := out.InlineDatum.MarshalCBOR()
	require.Nil(t, err)
	giftCard := Utxo{
		Ref:         TxRef{Hash: testTxHash(0x02)},
		Address:     out.Address,
		Value:       out.Value,
		InlineDatum: datum,
	}

	// redeeming needs no local state: the scripts come from the datum
	redeemer := testGiftCardContract(t, &fakeProvider{})
	wallet := testWallet(testBeneficiaryAddress, 8_000_000)
	plan, err := redeemer.RedeemGiftCard(wallet, giftCard)
	require.Nil(t, err)
	assert.Equal(t, []DirectiveKind{
		DirectiveScriptTxIn,
		DirectiveTxInScript,
		DirectiveMint,
		DirectiveChangeAddress,
		DirectiveCollateral,
		DirectiveSelectUtxosFrom,
	}, plan.Kinds())

	scripts, err := creator.Scripts(creator.TokenNameHex, creator.ParamUtxo)
	require.Nil(t, err)

	assert.Equal(t, giftCard, plan.Directives[0].(ScriptTxIn).Utxo)
	assert.Equal(t, scripts.Redeem, plan.Directives[1].(TxInScript).Script)

	burn := plan.Directives[2].(Mint)
	assert.Equal(t, int64(-1), burn.Quantity)
	assert.Equal(t, scripts.PolicyId, burn.PolicyId)
	assert.Equal(t, "d87a80", encodeHex(t, burn.Redeemer))

	assert.Equal(t, wallet.Utxos, plan.Directives[5].(SelectUtxosFrom).Utxos)
}

func TestGiftCardContract_GetUtxoByTxHash(t *testing.T) {
	contract := testGiftCardContract(t, &fakeProvider{})

	_, err := contract.GetUtxoByTxHash(t.Context(), testTxHash(0x02))
	assert.ErrorIs(t, err, ErrParamsUnset)

	paramUtxo := TxRef{Hash: testTxHash(0xaa), Index: 1}
	giftCard := Utxo{
		Ref:     TxRef{Hash: testTxHash(0x02)},
		Address: "addr_test1wrwarecy9qd5l7ajfs6uc4jrz8aeux5evfvktfuk5e872pceap6ft",
		Value:   LovelaceValue(10_000_000),
	}
	provider := &fakeProvider{utxos: map[string][]Utxo{giftCard.Address: {giftCard}}}

	contract = testGiftCardContract(t, provider).WithParams(HexBytes("GIFT"), paramUtxo)
	found, err := contract.GetUtxoByTxHash(t.Context(), testTxHash(0x02))
	require.Nil(t, err)
	assert.Equal(t, giftCard, found)
	assert.Equal(t, []string{giftCard.Address}, provider.calls)
}
