package cardano

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyParams(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testCompiledCode, PlutusV2)
	require.Nil(t, err)

	applied, err := ApplyParams(script, ByteString{})
	require.Nil(t, err)
	assert.Equal(t, "4b010000320014c101400001", applied.Cbor.String())
	assert.Equal(t, PlutusV2, applied.Version)

	flat, err := applied.Flat()
	require.Nil(t, err)
	assert.Equal(t, "010000320014c101400001", HexBytes(flat).String())

	hash, err := applied.Hash()
	require.Nil(t, err)
	assert.Equal(t, "8661373a74f23721628948906a77a2cb565e67bbfab913a8e9f79466", hash.String())

	unchanged, err := ApplyParams(script)
	require.Nil(t, err)
	assert.Equal(t, script, unchanged)
}

func TestApplyParams_MultipleParams(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testCompiledCode, PlutusV2)
	require.Nil(t, err)

	outRef, err := TxOutRefData(TxRef{Hash: testTxHash(0xaa), Index: 1})
	require.Nil(t, err)

	applied, err := ApplyParams(script, ByteString("GIFT"), outRef)
	require.Nil(t, err)
	assert.Equal(t, "583f0100003320014c01054447494654004c012bd8799fd8799f5820"+testTxHash(0xaa)+"ff01ff0001", applied.Cbor.String())

	hash, err := applied.Hash()
	require.Nil(t, err)
	assert.Equal(t, "83879549e765f763995700acee24c90f761d838af1cb50bd261c400d", hash.String())
}

func TestApplyParams_AppliedProgram(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testCompiledCode, PlutusV2)
	require.Nil(t, err)

	once, err := ApplyParams(script, NewInt(42))
	require.Nil(t, err)

	assert.Equal(t, "4c010000320014c102182a0001", once.Cbor.String())

	// applying in two steps walks the constant of the first application
	twice, err := ApplyParams(once, ByteString{0x01})
	require.Nil(t, err)
	assert.Equal(t, "530100003320014c0102182a004c010241010001", twice.Cbor.String())

	flat, err := twice.Flat()
	require.Nil(t, err)
	_, term, err := splitFlatProgram(flat)
	require.Nil(t, err)
	assert.Equal(t, 120, term.length)
}

// (program 1.0.0 (lam x (con bytestring #01)))
const testByteStringTemplate = "49010000248901010001"

func TestApplyParams_OddParamCount(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testByteStringTemplate, PlutusV2)
	require.Nil(t, err)

	one, err := ApplyParams(script, NewInt(1))
	require.Nil(t, err)
	assert.Equal(t, "4f0100003248810101004c0101010001", one.Cbor.String())

	hash, err := one.Hash()
	require.Nil(t, err)
	assert.Equal(t, "0c83ce3068a2ab60fcc3ea9ada340dc632d6fa55456437cc391ca67a", hash.String())

	three, err := ApplyParams(script, NewInt(1), ByteString{}, Constr{})
	require.Nil(t, err)
	assert.Equal(t, "581c010000333248810101004c010101004c010140004c0103d879800001", three.Cbor.String())

	hash, err = three.Hash()
	require.Nil(t, err)
	assert.Equal(t, "b2487a1f71befed4c35592df36f9263b447d3e97f0c66c89c79a54bc", hash.String())

	// the results are themselves valid programs
	for _, applied := range []PlutusScript{one, three} {
		flat, err := applied.Flat()
		require.Nil(t, err)
		_, _, err = splitFlatProgram(flat)
		assert.Nil(t, err)
	}
}

func TestApplyParams_EvenParamCount(t *testing.T) {
	script, err := NewPlutusScriptFromHex(testByteStringTemplate, PlutusV2)
	require.Nil(t, err)

	two, err := ApplyParams(script, NewInt(1), ByteString{})
	require.Nil(t, err)
	assert.Equal(t, "540100003324890101004c010101004c0101400001", two.Cbor.String())
}

func TestSplitFlatProgram(t *testing.T) {
	version, term, err := splitFlatProgram([]byte{0x01, 0x00, 0x00, 0x20, 0x01, 0x01})
	require.Nil(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, version)
	assert.Equal(t, 16, term.length)

	// (program 1.0.0 (con integer 0)) with the term ending on padding bits
	_, term, err = splitFlatProgram([]byte{0x01, 0x00, 0x00, 0x48, 0x00, 0x01})
	require.Nil(t, err)
	assert.Equal(t, 4+6+8, term.length)

	_, _, err = splitFlatProgram([]byte{0x01, 0x00, 0x00})
	assert.ErrorIs(t, err, ErrInvalidScript)

	// lambda with a truncated body
	_, _, err = splitFlatProgram([]byte{0x01, 0x00, 0x00, 0x21})
	assert.ErrorIs(t, err, ErrInvalidScript)

	// trailing bytes after the padding
	_, _, err = splitFlatProgram([]byte{0x01, 0x00, 0x00, 0x20, 0x01, 0x01, 0x01})
	assert.ErrorIs(t, err, ErrInvalidScript)
}

func TestApplyParams_InvalidScript(t *testing.T) {
	_, err := ApplyParams(PlutusScript{Version: PlutusV2, Cbor: HexBytes{0x01}}, NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidScript)

	script, err := NewPlutusScriptFromHex(testCompiledCode, PlutusV2)
	require.Nil(t, err)
	_, err = ApplyParams(script, nil)
	assert.ErrorIs(t, err, ErrInvalidScript)
}
