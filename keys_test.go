package cardano

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSeed = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"

func TestParseWalletSecret_Mnemonic(t *testing.T) {
	mnemonic := strings.Repeat("abandon ", 11) + "about"

	wallet, err := ParseWalletSecret("  " + mnemonic + "\n")
	require.Nil(t, err)
	assert.Equal(t, mnemonic, wallet.Mnemonic)
	require.NotNil(t, wallet.Stake)

	addr, err := wallet.Address(NetworkMainNet)
	require.Nil(t, err)
	assert.Equal(t, "addr1qy8ac7qqy0vtulyl7wntmsxc6wex80gvcyjy33qffrhm7sh927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mq4afdhv", addr.String())

	addr, err = wallet.Address(NetworkPreProd)
	require.Nil(t, err)
	assert.Equal(t, "addr_test1qq8ac7qqy0vtulyl7wntmsxc6wex80gvcyjy33qffrhm7sh927ysx5sftuw0dlft05dz3c7revpf7jx0xnlcjz3g69mqkt5dmn", addr.String())

	_, err = ParseWalletSecret(strings.Repeat("abandon ", 12))
	assert.ErrorIs(t, err, ErrUnsupportedSecret)
}

func TestParseWalletSecret_RootKey(t *testing.T) {
	wallet, err := ParseWalletSecret("root_xsk1cp4r766gmy8s297m7fzd5sxvyhl2a0y3hmjmjt3djvqak52jpazmx35kjt3tcpw0ylm7fd6ftqdnwxdr0hpsghtfm2xqmqnv3zuq74695vpwedze5j9j8004eg0hchlk53kylctuxp63lfylpr6064j20gmpxr28")
	require.Nil(t, err)
	assert.Empty(t, wallet.Mnemonic)

	keyHash, err := wallet.Payment.KeyHash()
	require.Nil(t, err)
	assert.Equal(t, "9c8273304e495f2f0cad0bdbc6be34af0de6dbcc30836b27c8036e8e", keyHash.String())

	stakeHash, err := wallet.Stake.KeyHash()
	require.Nil(t, err)
	assert.Equal(t, "e517df54bc0dd309e4d7160633ea35dd81253bcbe7f632b4cbb09c17", stakeHash.String())

	addr, err := wallet.Address(NetworkPreProd)
	require.Nil(t, err)
	assert.Equal(t, "addr_test1qzwgyuesfey47tcv459ah347xjhsmekmescgx6e8eqpkarh9zl04f0qd6vy7f4ckqce75dwasyjnhjl87cetfjasnsts6ful73", addr.String())
}

func TestParseWalletSecret_PaymentKeys(t *testing.T) {
	// the first payment key of the root key above
	wallet, err := ParseWalletSecret("addr_xsk1gqm9629t3nrge9dteqfggeaue8kg9un3lsvjsdxp5xl27ezjpaznja2jkaxrss0897anja64w8e87qdwzkehjyaj4vpnt4xsg6d7kfgwy5hhd3uaj3prkdsj4avy7c94c47tuea7yvu8yntkf075fdur0vdwr3hp")
	require.Nil(t, err)
	assert.Nil(t, wallet.Stake)
	addr, err := wallet.Address(NetworkPreProd)
	require.Nil(t, err)
	assert.Equal(t, "addr_test1vzwgyuesfey47tcv459ah347xjhsmekmescgx6e8eqpkars7earzy", addr.String())

	wallet, err = ParseWalletSecret("addr_sk1n4smr800l4dxpw5yft6f9mpvc3zyn3tf0vexjxts8wkqx89w0asqpelj5e")
	require.Nil(t, err)
	pub, err := wallet.Payment.PublicKey()
	require.Nil(t, err)
	assert.Equal(t, "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a", pub.String())
	addr, err = wallet.Address(NetworkPreProd)
	require.Nil(t, err)
	assert.Equal(t, "addr_test1vq6aahffs2sreuu70h8q8jpen98lmmpwc6cy788j6s8xrgc64xuck", addr.String())
}

func TestParseWalletSecret_Envelope(t *testing.T) {
	wallet, err := ParseWalletSecret(`{
		"type": "PaymentSigningKeyShelley_ed25519",
		"description": "Payment Signing Key",
		"cborHex": "5820` + testSeed + `"
	}`)
	require.Nil(t, err)
	assert.Equal(t, testSeed, wallet.Payment.Key.String())
	assert.False(t, wallet.Payment.Extended())

	keyHash, err := wallet.Payment.KeyHash()
	require.Nil(t, err)
	assert.Equal(t, "35dedd2982a03cf39e7dce03c839994ffdec2ec6b04f1cf2d40e61a3", keyHash.String())

	_, err = ParseWalletSecret(`{"type": "StakeSigningKeyShelley_ed25519", "cborHex": "5820` + testSeed + `"}`)
	assert.ErrorIs(t, err, ErrUnsupportedSecret)

	_, err = ParseWalletSecret(`{"type": `)
	assert.ErrorIs(t, err, ErrUnsupportedSecret)
}

func TestParseWalletSecret_Invalid(t *testing.T) {
	_, err := ParseWalletSecret("   ")
	assert.ErrorIs(t, err, ErrSecretNotFound)

	_, err = ParseWalletSecret("not a key")
	assert.ErrorIs(t, err, ErrUnsupportedSecret)

	// a valid bech32 string with an unexpected prefix
	_, err = ParseWalletSecret("addr_test1vq6aahffs2sreuu70h8q8jpen98lmmpwc6cy788j6s8xrgc64xuck")
	assert.ErrorIs(t, err, ErrUnsupportedSecret)
}

func TestSigningKey_Derive(t *testing.T) {
	_, err := SigningKey{Key: make(HexBytes, 32)}.Derive(0)
	assert.ErrorIs(t, err, ErrUnsupportedSecret)

	_, err = SigningKey{Key: make(HexBytes, 10)}.PublicKey()
	assert.ErrorIs(t, err, ErrUnsupportedSecret)

	x, y := make([]byte, 32), make([]byte, 32)
	x[0], x[1], y[0] = 0xff, 0x01, 0x01
	assert.Equal(t, []byte{0x07, 0x02}, addMul8(x, y[:28])[:2])
	assert.Equal(t, []byte{0x00, 0x02}, add256(x, y)[:2])
}

func TestLoadSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "owner.sk")

	t.Setenv("TEST_ROOT_KEY", " from-env ")
	secret, err := LoadSecret(path, "TEST_ROOT_KEY")
	require.Nil(t, err)
	assert.Equal(t, "from-env", secret)

	require.Nil(t, os.WriteFile(path, []byte("from-file\n"), 0600))
	secret, err = LoadSecret(path, "TEST_ROOT_KEY")
	require.Nil(t, err)
	assert.Equal(t, "from-file", secret)

	t.Setenv("TEST_ROOT_KEY", "")
	_, err = LoadSecret(filepath.Join(dir, "missing.sk"), "TEST_ROOT_KEY")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}
