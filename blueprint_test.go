package cardano

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlueprint(t *testing.T) {
	blueprint := testBlueprint(t, 2)
	assert.Equal(t, "test/contracts", blueprint.Title)
	assert.Equal(t, PlutusV2, blueprint.PlutusVersion)
	assert.Len(t, blueprint.Validators, 2)

	index, err := blueprint.ValidatorByTitle("redeem.redeem")
	assert.Nil(t, err)
	assert.Equal(t, 1, index)

	index, err = blueprint.ValidatorByTitle("gift_card.gift_card.mint")
	assert.Nil(t, err)
	assert.Equal(t, 0, index)

	_, err = blueprint.ValidatorByTitle("missing")
	assert.ErrorIs(t, err, ErrValidatorNotFound)

	script, err := blueprint.Script(1)
	require.Nil(t, err)
	assert.Equal(t, testCompiledCode, script.Cbor.String())

	_, err = blueprint.Script(2)
	assert.ErrorIs(t, err, ErrValidatorNotFound)
}

func TestParseBlueprint_Invalid(t *testing.T) {
	_, err := ParseBlueprint([]byte(`{"validators": [`))
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = ParseBlueprint([]byte(`{"preamble": {}, "validators": []}`))
	assert.ErrorIs(t, err, ErrValidatorNotFound)

	blueprint, err := ParseBlueprint([]byte(`{"validators": [{"title": "v", "compiledCode": "` + testCompiledCode + `", "hash": "00"}]}`))
	require.Nil(t, err)
	_, err = blueprint.Script(0)
	assert.ErrorIs(t, err, ErrScriptHashMismatch)
}

func TestLoadBlueprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plutus.json")
	err := os.WriteFile(path, []byte(`{"preamble": {"plutusVersion": "v3"}, "validators": [{"title": "v", "compiledCode": "`+testCompiledCode+`"}]}`), 0600)
	require.Nil(t, err)

	blueprint, err := LoadBlueprint(path)
	require.Nil(t, err)
	assert.Equal(t, PlutusV3, blueprint.PlutusVersion)

	_, err = LoadBlueprint(filepath.Join(t.TempDir(), "missing.json"))
	assert.NotNil(t, err)
}

func TestPlutusScript(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testCompiledCode, PlutusV2)
	require.Nil(t, err)

	hash, err := script.Hash()
	require.Nil(t, err)
	assert.Equal(t, testScriptHash, hash.String())

	addr, err := script.Address(NetworkPreProd)
	require.Nil(t, err)
	assert.Equal(t, "addr_test1wrfgje4njf4l8vq5ueh9gs9n0zdcdvm4fxd3j5whj88hswc37z3dn", addr.String())

	addr, err = script.Address(NetworkMainNet)
	require.Nil(t, err)
	assert.Equal(t, "addr1w8fgje4njf4l8vq5ueh9gs9n0zdcdvm4fxd3j5whj88hswc2kkdzk", addr.String())

	double, err := script.DoubleCbor()
	require.Nil(t, err)
	assert.Equal(t, "4746010000200101", double.String())

	// double wrapped code is normalised
	unwrapped, err := NewPlutusScript(double, PlutusV2)
	require.Nil(t, err)
	assert.Equal(t, script, unwrapped)

	_, err = NewPlutusScriptFromHex("zz", PlutusV2)
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = NewPlutusScriptFromHex(testCompiledCode, PlutusVersion(4))
	assert.ErrorIs(t, err, ErrInvalidScript)

	_, err = PlutusScript{Version: PlutusV2}.Hash()
	assert.ErrorIs(t, err, ErrInvalidScript)
}
