package cardano

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testOwnerAddress       = "addr_test1vz2fxv2umyhttkxyxp8x0dlpdt3k6cwng5pxj3jhsydzerspjrlsz"
	testOwnerKeyHash       = "9493315cd92eb5d8c4304e67b7e16ae36d61d34502694657811a2c8e"
	testBeneficiaryAddress = "addr_test1vztc80na8320zymhjekl40yjsnxkcvhu58x59mc2fuwvgkc332vxv"
	testBeneficiaryKeyHash = "9783be7d3c54f11377966dfabc9284cd6c32fca1cd42ef0a4f1cc45b"
	testStrangerAddress    = "addr_test1vqg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zyg3zygxrcya6"

	// (program 1.0.0 (lam x x))
	testCompiledCode = "46010000200101"
	testScriptHash   = "d28966b3926bf3b014e66e5440b3789b86b375499b1951d791cf783b"
)

func testBlueprint(t *testing.T, validators int) *Blueprint {
	t.Helper()
	titles := []string{`"gift_card.gift_card.mint"`, `"redeem.redeem.spend"`}
	var entries []string
	for i := 0; i < validators; i++ {
		entries = append(entries, `{"title":`+titles[i%len(titles)]+`,"compiledCode":"`+testCompiledCode+`","hash":"`+testScriptHash+`"}`)
	}
	blueprint, err := ParseBlueprint([]byte(`{
		"preamble": {"title": "test/contracts", "plutusVersion": "v2"},
		"validators": [` + strings.Join(entries, ",") + `]
	}`))
	require.Nil(t, err)
	return blueprint
}

type fakeProvider struct {
	utxos map[string][]Utxo
	calls []string
}

func (p *fakeProvider) AddressUtxos(ctx context.Context, address string) ([]Utxo, error) {
	p.calls = append(p.calls, address)
	return p.utxos[address], nil
}

func testTxHash(b byte) string {
	return strings.Repeat(HexBytes{b}.String(), TxHashSize)
}

func testWallet(address string, lovelace ...uint64) WalletInfo {
	wallet := WalletInfo{Address: address}
	for i, l := range lovelace {
		wallet.Utxos = append(wallet.Utxos, Utxo{
			Ref:     TxRef{Hash: testTxHash(0xaa), Index: uint32(i)},
			Address: address,
			Value:   LovelaceValue(l),
		})
	}
	if collateral, found := SelectCollateral(wallet.Utxos); found {
		wallet.Collateral = &collateral
	}
	return wallet
}

func TestLookupScriptUtxo(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testCompiledCode, PlutusV2)
	require.Nil(t, err)
	addr, err := script.Address(NetworkPreProd)
	require.Nil(t, err)

	provider := &fakeProvider{utxos: map[string][]Utxo{
		addr.String(): {
			{Ref: TxRef{Hash: testTxHash(0x01)}, Address: addr.String(), Value: LovelaceValue(1)},
			{Ref: TxRef{Hash: testTxHash(0x02), Index: 1}, Address: addr.String(), Value: LovelaceValue(2)},
		},
	}}

	utxo, err := lookupScriptUtxo(context.Background(), provider, script, NetworkPreProd, strings.ToUpper(testTxHash(0x02)))
	require.Nil(t, err)
	require.Equal(t, uint64(2), utxo.Value.Lovelace)
	require.Equal(t, []string{addr.String()}, provider.calls)

	// pasted with surrounding whitespace
	utxo, err = lookupScriptUtxo(context.Background(), provider, script, NetworkPreProd, " "+testTxHash(0x01)+"\n")
	require.Nil(t, err)
	require.Equal(t, uint64(1), utxo.Value.Lovelace)

	_, err = lookupScriptUtxo(context.Background(), provider, script, NetworkPreProd, testTxHash(0x03))
	require.ErrorIs(t, err, ErrUtxoNotFound)

	_, err = lookupScriptUtxo(context.Background(), provider, script, NetworkPreProd, "abc")
	require.ErrorIs(t, err, ErrInvalidTransactionId)
}
