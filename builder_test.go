package cardano

import (
	"crypto/ed25519"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Salvionied/apollo/constants"
	apolloaddr "github.com/Salvionied/apollo/serialization/Address"
	"github.com/Salvionied/apollo/serialization/Redeemer"
	"github.com/Salvionied/apollo/serialization/TransactionInput"
	"github.com/Salvionied/apollo/serialization/UTxO"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApolloNetwork(t *testing.T) {
	assert.Equal(t, constants.MAINNET, apolloNetwork(NetworkMainNet))
	assert.Equal(t, constants.PREPROD, apolloNetwork(NetworkPreProd))
	assert.Equal(t, constants.PREVIEW, apolloNetwork(NetworkPreview))
}

func TestNewNodeSubmitter(t *testing.T) {
	_, err := NewNodeSubmitter(filepath.Join(t.TempDir(), "node.socket"), NetworkPreProd)
	assert.NotNil(t, err)

	_, err = NewNodeSubmitter("", Network("devnet"))
	assert.ErrorIs(t, err, ErrNetworkInvalid)
}

func testApolloBuilder(t *testing.T, secret string) *ApolloBuilder {
	t.Helper()
	wallet, err := ParseWalletSecret(secret)
	require.Nil(t, err)
	address, err := wallet.Address(NetworkPreProd)
	require.Nil(t, err)
	return &ApolloBuilder{network: NetworkPreProd, wallet: wallet, address: address, log: Log()}
}

func TestApolloBuilder_NewTx(t *testing.T) {
	secrets := map[string]string{
		"mnemonic": strings.Repeat("abandon ", 11) + "about",
		"root_xsk": "root_xsk1cp4r766gmy8s297m7fzd5sxvyhl2a0y3hmjmjt3djvqak52jpazmx35kjt3tcpw0ylm7fd6ftqdnwxdr0hpsghtfm2xqmqnv3zuq74695vpwedze5j9j8004eg0hchlk53kylctuxp63lfylpr6064j20gmpxr28",
		"addr_xsk": "addr_xsk1gqm9629t3nrge9dteqfggeaue8kg9un3lsvjsdxp5xl27ezjpaznja2jkaxrss0897anja64w8e87qdwzkehjyaj4vpnt4xsg6d7kfgwy5hhd3uaj3prkdsj4avy7c94c47tuea7yvu8yntkf075fdur0vdwr3hp",
		"addr_sk":  "addr_sk1n4smr800l4dxpw5yft6f9mpvc3zyn3tf0vexjxts8wkqx89w0asqpelj5e",
		"envelope": `{"type": "PaymentSigningKeyShelley_ed25519", "cborHex": "5820` + testSeed + `"}`,
	}

	msg := []byte("transaction body hash")

	for name, secret := range secrets {
		t.Run(name, func(t *testing.T) {
			b := testApolloBuilder(t, secret)

			tx, err := b.newTx()
			require.Nil(t, err)
			require.NotNil(t, tx.GetWallet())
			assert.Equal(t, b.address.String(), tx.GetWallet().GetAddress().String())

			skey, err := apolloSigningKey(b.wallet.Payment)
			require.Nil(t, err)
			sig, err := skey.Sign(msg)
			require.Nil(t, err)

			pub, err := b.wallet.Payment.PublicKey()
			require.Nil(t, err)
			assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), msg, sig))
		})
	}
}

func TestApolloSigningKey_Invalid(t *testing.T) {
	_, err := apolloSigningKey(SigningKey{Key: make([]byte, 16)})
	assert.ErrorIs(t, err, ErrUnsupportedSecret)
}

func TestApolloPlutusData(t *testing.T) {
	hash, err := HexBytesFromString(testOwnerKeyHash)
	require.Nil(t, err)

	cases := map[string]struct {
		data PlutusData
		cbor string
	}{
		"unit":        {data: NewConstr(0), cbor: "d87980"},
		"second":      {data: NewConstr(1), cbor: "d87a80"},
		"empty":       {data: ByteString{}, cbor: "40"},
		"vestingLike": {data: NewConstr(0, NewInt(1700000000000), ByteString(hash), ByteString(hash))},
	}

	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			expected, err := c.data.MarshalCBOR()
			require.Nil(t, err)
			if c.cbor != "" {
				assert.Equal(t, c.cbor, hex.EncodeToString(expected))
			}

			out, err := apolloPlutusData(c.data)
			require.Nil(t, err)
			actual, err := out.MarshalCBOR()
			require.Nil(t, err)
			assert.Equal(t, hex.EncodeToString(expected), hex.EncodeToString(actual))
		})
	}
}

func TestApolloRedeemer(t *testing.T) {
	redeemer, err := apolloRedeemer(Redeemer.MINT, NewConstr(0))
	require.Nil(t, err)
	assert.Equal(t, Redeemer.MINT, redeemer.Tag)

	data, err := redeemer.Data.MarshalCBOR()
	require.Nil(t, err)
	assert.Equal(t, "d87980", hex.EncodeToString(data))

	redeemer, err = apolloRedeemer(Redeemer.SPEND, NewConstr(1))
	require.Nil(t, err)
	assert.Equal(t, Redeemer.SPEND, redeemer.Tag)
}

func testApolloUtxo(t *testing.T, hash string, index int) UTxO.UTxO {
	t.Helper()
	id, err := hex.DecodeString(hash)
	require.Nil(t, err)
	return UTxO.UTxO{Input: TransactionInput.TransactionInput{TransactionId: id, Index: index}}
}

func TestApolloUtxoIndex_Resolve(t *testing.T) {
	calls := 0
	index := newApolloUtxoIndex(func(addr apolloaddr.Address) ([]UTxO.UTxO, error) {
		calls++
		assert.Equal(t, testOwnerAddress, addr.String())
		return []UTxO.UTxO{
			testApolloUtxo(t, testTxHash(0x01), 0),
			testApolloUtxo(t, testTxHash(0x01), 1),
			testApolloUtxo(t, testTxHash(0x02), 0),
		}, nil
	})

	for _, ref := range []TxRef{{Hash: testTxHash(0x01), Index: 1}, {Hash: testTxHash(0x02), Index: 0}} {
		u, err := index.resolve(Utxo{Ref: ref, Address: testOwnerAddress})
		require.Nil(t, err)
		assert.Equal(t, int(ref.Index), u.Input.Index)
		assert.Equal(t, ref.Hash, hex.EncodeToString(u.Input.TransactionId))
	}
	assert.Equal(t, 1, calls)

	_, err := index.resolve(Utxo{Ref: TxRef{Hash: testTxHash(0x03), Index: 0}, Address: testOwnerAddress})
	assert.ErrorIs(t, err, ErrUtxoNotFound)
	assert.Equal(t, 1, calls)
}

func TestApolloUtxoIndex_Errors(t *testing.T) {
	index := newApolloUtxoIndex(func(apolloaddr.Address) ([]UTxO.UTxO, error) {
		return nil, errors.New("blockfrost unavailable")
	})

	_, err := index.resolve(Utxo{Ref: TxRef{Hash: testTxHash(0x01)}, Address: testOwnerAddress})
	assert.ErrorIs(t, err, ErrRpcFailed)

	_, err = index.resolve(Utxo{Ref: TxRef{Hash: testTxHash(0x01)}, Address: "addr_test1invalid"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

type unknownDirective struct{}

func (unknownDirective) Kind() DirectiveKind { return "unknown" }

func TestApolloBuilder_Apply(t *testing.T) {
	b := testApolloBuilder(t, "addr_sk1n4smr800l4dxpw5yft6f9mpvc3zyn3tf0vexjxts8wkqx89w0asqpelj5e")
	index := newApolloUtxoIndex(func(apolloaddr.Address) ([]UTxO.UTxO, error) {
		return nil, nil
	})

	tx, err := b.newTx()
	require.Nil(t, err)

	keyHash, err := b.wallet.Payment.KeyHash()
	require.Nil(t, err)

	_, err = b.apply(tx, index, RequiredSigner{KeyHash: keyHash})
	assert.Nil(t, err)

	other, err := HexBytesFromString(testOwnerKeyHash)
	require.Nil(t, err)
	_, err = b.apply(tx, index, RequiredSigner{KeyHash: other})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = b.apply(tx, index, ChangeAddress{Address: "addr_test1invalid"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = b.apply(tx, index, TxIn{Utxo: Utxo{Ref: TxRef{Hash: testTxHash(0x01)}, Address: testOwnerAddress}})
	assert.ErrorIs(t, err, ErrUtxoNotFound)

	_, err = b.apply(tx, index, unknownDirective{})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}
