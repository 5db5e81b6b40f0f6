package cardano

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Blueprint is a parsed CIP-57 plutus.json as emitted by aiken build.
type Blueprint struct {
	Title         string
	PlutusVersion PlutusVersion
	Validators    []BlueprintValidator
}

type BlueprintValidator struct {
	Title        string
	CompiledCode string
	Hash         string
}

func LoadBlueprint(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read blueprint '%s'", path)
	}
	blueprint, err := ParseBlueprint(data)
	if err != nil {
		return nil, errors.Wrapf(err, "blueprint '%s'", path)
	}
	return blueprint, nil
}

func ParseBlueprint(data []byte) (*Blueprint, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.Wrap(ErrInvalidScript, "blueprint is not valid json")
	}

	root := gjson.ParseBytes(data)
	blueprint := &Blueprint{
		Title:         root.Get("preamble.title").String(),
		PlutusVersion: PlutusV2,
	}

	switch strings.ToLower(root.Get("preamble.plutusVersion").String()) {
	case "v1":
		blueprint.PlutusVersion = PlutusV1
	case "v3":
		blueprint.PlutusVersion = PlutusV3
	}

	for _, v := range root.Get("validators").Array() {
		blueprint.Validators = append(blueprint.Validators, BlueprintValidator{
			Title:        v.Get("title").String(),
			CompiledCode: v.Get("compiledCode").String(),
			Hash:         v.Get("hash").String(),
		})
	}

	if len(blueprint.Validators) == 0 {
		return nil, errors.Wrap(ErrValidatorNotFound, "blueprint declares no validators")
	}

	return blueprint, nil
}

func (b *Blueprint) Validator(index int) (v BlueprintValidator, err error) {
	if index < 0 || index >= len(b.Validators) {
		err = errors.Wrapf(ErrValidatorNotFound, "index %d (blueprint has %d)", index, len(b.Validators))
		return
	}
	return b.Validators[index], nil
}

// ValidatorByTitle matches the full title ("module.name") or, failing that,
// a title prefix such as "module.name" for "module.name.spend".
func (b *Blueprint) ValidatorByTitle(title string) (index int, err error) {
	for i, v := range b.Validators {
		if v.Title == title {
			return i, nil
		}
	}
	for i, v := range b.Validators {
		if strings.HasPrefix(v.Title, title+".") {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrValidatorNotFound, "title '%s'", title)
}

// Script returns the compiled code of validator index. When the blueprint
// declares a hash it must match the computed one.
func (b *Blueprint) Script(index int) (script PlutusScript, err error) {
	v, err := b.Validator(index)
	if err != nil {
		return
	}

	if script, err = NewPlutusScriptFromHex(v.CompiledCode, b.PlutusVersion); err != nil {
		err = errors.Wrapf(err, "validator '%s'", v.Title)
		return
	}

	if v.Hash == "" {
		return
	}

	hash, err := script.Hash()
	if err != nil {
		return
	}
	if hash.String() != strings.ToLower(v.Hash) {
		err = errors.Wrapf(ErrScriptHashMismatch, "validator '%s' declares %s, computed %s", v.Title, v.Hash, hash)
	}
	return
}
