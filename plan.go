package cardano

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type DirectiveKind string

const (
	DirectiveTxIn            DirectiveKind = "txIn"
	DirectiveScriptTxIn      DirectiveKind = "spendingTxIn"
	DirectiveTxInScript      DirectiveKind = "txInScript"
	DirectiveMint            DirectiveKind = "mint"
	DirectiveTxOut           DirectiveKind = "txOut"
	DirectiveChangeAddress   DirectiveKind = "changeAddress"
	DirectiveCollateral      DirectiveKind = "txInCollateral"
	DirectiveInvalidBefore   DirectiveKind = "invalidBefore"
	DirectiveRequiredSigner  DirectiveKind = "requiredSignerHash"
	DirectiveSelectUtxosFrom DirectiveKind = "selectUtxosFrom"
)

// Directive is one step of a transaction plan. A builder applies the
// directives of a plan in order.
type Directive interface {
	Kind() DirectiveKind
}

type TxIn struct {
	Utxo Utxo `json:"utxo"`
}

// ScriptTxIn spends a script locked output. The script itself is supplied by
// the TxInScript directive that follows.
type ScriptTxIn struct {
	Utxo               Utxo       `json:"utxo"`
	Redeemer           PlutusData `json:"redeemer"`
	InlineDatumPresent bool       `json:"inlineDatumPresent"`
}

type TxInScript struct {
	Script PlutusScript `json:"script"`
}

// Mint mints (positive quantity) or burns (negative) AssetName under the
// policy of Script.
type Mint struct {
	Quantity  int64        `json:"quantity"`
	PolicyId  HexBytes     `json:"policyId"`
	AssetName HexBytes     `json:"assetName"`
	Script    PlutusScript `json:"script"`
	Redeemer  PlutusData   `json:"redeemer"`
}

type TxOut struct {
	Address     string     `json:"address"`
	Value       Value      `json:"value"`
	InlineDatum PlutusData `json:"inlineDatum,omitempty"`
}

type ChangeAddress struct {
	Address string `json:"address"`
}

type Collateral struct {
	Utxo Utxo `json:"utxo"`
}

type InvalidBefore struct {
	Slot uint64 `json:"slot"`
}

type RequiredSigner struct {
	KeyHash HexBytes `json:"keyHash"`
}

type SelectUtxosFrom struct {
	Utxos []Utxo `json:"utxos"`
}

func (TxIn) Kind() DirectiveKind            { return DirectiveTxIn }
func (ScriptTxIn) Kind() DirectiveKind      { return DirectiveScriptTxIn }
func (TxInScript) Kind() DirectiveKind      { return DirectiveTxInScript }
func (Mint) Kind() DirectiveKind            { return DirectiveMint }
func (TxOut) Kind() DirectiveKind           { return DirectiveTxOut }
func (ChangeAddress) Kind() DirectiveKind   { return DirectiveChangeAddress }
func (Collateral) Kind() DirectiveKind      { return DirectiveCollateral }
func (InvalidBefore) Kind() DirectiveKind   { return DirectiveInvalidBefore }
func (RequiredSigner) Kind() DirectiveKind  { return DirectiveRequiredSigner }
func (SelectUtxosFrom) Kind() DirectiveKind { return DirectiveSelectUtxosFrom }

// TxPlan is an ordered list of builder directives.
type TxPlan struct {
	Directives []Directive
}

func NewTxPlan() *TxPlan {
	return &TxPlan{}
}

func (p *TxPlan) add(d Directive) *TxPlan {
	p.Directives = append(p.Directives, d)
	return p
}

func (p *TxPlan) TxIn(utxo Utxo) *TxPlan {
	return p.add(TxIn{Utxo: utxo})
}

func (p *TxPlan) SpendScript(utxo Utxo, redeemer PlutusData, script PlutusScript) *TxPlan {
	return p.
		add(ScriptTxIn{Utxo: utxo, Redeemer: redeemer, InlineDatumPresent: len(utxo.InlineDatum) > 0}).
		add(TxInScript{Script: script})
}

func (p *TxPlan) Mint(quantity int64, policyId, assetName HexBytes, script PlutusScript, redeemer PlutusData) *TxPlan {
	return p.add(Mint{Quantity: quantity, PolicyId: policyId, AssetName: assetName, Script: script, Redeemer: redeemer})
}

func (p *TxPlan) TxOut(address string, value Value, inlineDatum PlutusData) *TxPlan {
	return p.add(TxOut{Address: address, Value: value, InlineDatum: inlineDatum})
}

func (p *TxPlan) ChangeAddress(address string) *TxPlan {
	return p.add(ChangeAddress{Address: address})
}

func (p *TxPlan) Collateral(utxo Utxo) *TxPlan {
	return p.add(Collateral{Utxo: utxo})
}

func (p *TxPlan) InvalidBefore(slot uint64) *TxPlan {
	return p.add(InvalidBefore{Slot: slot})
}

func (p *TxPlan) RequiredSigner(keyHash HexBytes) *TxPlan {
	return p.add(RequiredSigner{KeyHash: keyHash})
}

func (p *TxPlan) SelectUtxosFrom(utxos []Utxo) *TxPlan {
	return p.add(SelectUtxosFrom{Utxos: utxos})
}

func (p *TxPlan) Kinds() (kinds []DirectiveKind) {
	for _, d := range p.Directives {
		kinds = append(kinds, d.Kind())
	}
	return
}

// Validate checks the structural rules every builder relies on: one change
// address, one trailing utxo selection, each script spend followed by its
// script, and collateral whenever a script runs.
func (p *TxPlan) Validate() error {
	if p == nil || len(p.Directives) == 0 {
		return errors.Wrap(ErrInvalidPlan, "empty plan")
	}

	counts := map[DirectiveKind]int{}
	for i, d := range p.Directives {
		if d == nil {
			return errors.Wrapf(ErrInvalidPlan, "nil directive at %d", i)
		}
		counts[d.Kind()]++

		switch x := d.(type) {
		case ScriptTxIn:
			if i+1 >= len(p.Directives) || p.Directives[i+1].Kind() != DirectiveTxInScript {
				return errors.Wrapf(ErrInvalidPlan, "script input %s is not followed by its script", x.Utxo.Ref)
			}
			if x.Redeemer == nil {
				return errors.Wrapf(ErrInvalidPlan, "script input %s has no redeemer", x.Utxo.Ref)
			}
		case Mint:
			if x.Quantity == 0 {
				return errors.Wrap(ErrInvalidPlan, "mint quantity is zero")
			}
			if x.Redeemer == nil {
				return errors.Wrap(ErrInvalidPlan, "mint has no redeemer")
			}
		case TxOut:
			if x.Address == "" {
				return errors.Wrap(ErrInvalidPlan, "output has no address")
			}
		}
	}

	if counts[DirectiveChangeAddress] != 1 {
		return errors.Wrapf(ErrInvalidPlan, "expected one change address, got %d", counts[DirectiveChangeAddress])
	}
	if counts[DirectiveSelectUtxosFrom] != 1 {
		return errors.Wrapf(ErrInvalidPlan, "expected one utxo selection, got %d", counts[DirectiveSelectUtxosFrom])
	}
	if last := p.Directives[len(p.Directives)-1]; last.Kind() != DirectiveSelectUtxosFrom {
		return errors.Wrapf(ErrInvalidPlan, "utxo selection must be last, got %s", last.Kind())
	}
	if (counts[DirectiveScriptTxIn] > 0 || counts[DirectiveMint] > 0) && counts[DirectiveCollateral] == 0 {
		return errors.Wrap(ErrInvalidPlan, "script execution requires collateral")
	}

	return nil
}

func (p *TxPlan) MarshalJSON() ([]byte, error) {
	type entry struct {
		Kind      DirectiveKind `json:"kind"`
		Directive Directive     `json:"directive"`
	}
	entries := make([]entry, 0, len(p.Directives))
	for _, d := range p.Directives {
		entries = append(entries, entry{Kind: d.Kind(), Directive: d})
	}
	return json.Marshal(entries)
}
