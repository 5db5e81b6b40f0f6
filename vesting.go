package cardano

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// withdrawClockSkew is subtracted from the current time when setting the
// lower validity bound so a lagging node still accepts the transaction.
const withdrawClockSkew = 15 * time.Second

// VestingDatum is Constr0[lockUntil (posix ms), owner pkh, beneficiary pkh].
type VestingDatum struct {
	LockUntil   int64    `json:"lockUntil"`
	Owner       HexBytes `json:"owner"`
	Beneficiary HexBytes `json:"beneficiary"`
}

func (d VestingDatum) PlutusData() PlutusData {
	return NewConstr(0, NewInt(d.LockUntil), ByteString(d.Owner), ByteString(d.Beneficiary))
}

func (d VestingDatum) LockUntilTime() time.Time {
	return time.UnixMilli(d.LockUntil)
}

func DecodeVestingDatum(pd PlutusData) (datum VestingDatum, err error) {
	c, err := asConstr(pd)
	if err != nil {
		return
	}
	if err = c.expect(0, 3); err != nil {
		return
	}
	if datum.LockUntil, err = asInt64(c.Fields[0]); err != nil {
		return
	}
	owner, err := asBytes(c.Fields[1])
	if err != nil {
		return
	}
	beneficiary, err := asBytes(c.Fields[2])
	if err != nil {
		return
	}
	datum.Owner, datum.Beneficiary = HexBytes(owner), HexBytes(beneficiary)
	return
}

// VestingContract locks funds at the unparameterised vesting validator. The
// owner may withdraw at any time, the beneficiary once the lock has expired.
type VestingContract struct {
	script   PlutusScript
	network  Network
	params   *NetworkParams
	provider ChainProvider
	log      *zerolog.Logger
	now      func() time.Time
}

func NewVestingContract(blueprint *Blueprint, net Network, provider ChainProvider) (contract *VestingContract, err error) {
	params, err := net.Params()
	if err != nil {
		return
	}

	script, err := blueprint.Script(0)
	if err != nil {
		err = errors.Wrap(err, "failed to load vesting validator")
		return
	}

	contract = &VestingContract{
		script:   script,
		network:  net,
		params:   params,
		provider: provider,
		log:      Log(),
		now:      time.Now,
	}
	return
}

func (c *VestingContract) Script() PlutusScript {
	return c.script
}

func (c *VestingContract) ScriptAddress() (Address, error) {
	return c.script.Address(c.network)
}

// DepositFund locks amount at the script address until lockUntil, payable to
// beneficiary (a bech32 key address). The wallet becomes the owner.
func (c *VestingContract) DepositFund(wallet WalletInfo, amount Value, lockUntil time.Time, beneficiary string) (plan *TxPlan, err error) {
	if amount.Lovelace == 0 && amount.IsLovelaceOnly() {
		err = errors.Wrap(ErrInvalidAmount, "deposit value is empty")
		return
	}

	owner, err := walletKeyHash(wallet.Address)
	if err != nil {
		err = errors.Wrap(err, "wallet address")
		return
	}

	beneficiaryAddr, err := DecodeAddress(beneficiary)
	if err != nil {
		return
	}
	if !beneficiaryAddr.IsForNetwork(c.params) {
		err = errors.Wrapf(ErrInvalidAddress, "beneficiary %s is not a %s address", beneficiary, c.network)
		return
	}
	beneficiaryPkh, err := beneficiaryAddr.PaymentKeyHash()
	if err != nil {
		return
	}

	scriptAddr, err := c.ScriptAddress()
	if err != nil {
		return
	}

	datum := VestingDatum{
		LockUntil:   lockUntil.UnixMilli(),
		Owner:       owner,
		Beneficiary: beneficiaryPkh,
	}

	c.log.Debug().Msgf("depositing %d lovelace at %s until %s", amount.Lovelace, scriptAddr, lockUntil.UTC().Format(time.RFC3339))

	plan = NewTxPlan().
		TxOut(scriptAddr.String(), amount, datum.PlutusData()).
		ChangeAddress(wallet.Address).
		SelectUtxosFrom(wallet.Utxos)

	err = plan.Validate()
	return
}

// WithdrawFund spends a vesting utxo back to the wallet. The wallet must be
// the owner, or the beneficiary once the lock time has passed.
func (c *VestingContract) WithdrawFund(wallet WalletInfo, utxo Utxo) (plan *TxPlan, err error) {
	pd, err := utxo.Datum()
	if err != nil {
		return
	}
	datum, err := DecodeVestingDatum(pd)
	if err != nil {
		return
	}

	signer, err := walletKeyHash(wallet.Address)
	if err != nil {
		err = errors.Wrap(err, "wallet address")
		return
	}

	now := c.now()
	switch {
	case signer.Equal(datum.Owner):
	case signer.Equal(datum.Beneficiary):
		if now.Before(datum.LockUntilTime()) {
			err = errors.Wrapf(ErrStillLocked, "until %s", datum.LockUntilTime().UTC().Format(time.RFC3339))
			return
		}
	default:
		err = errors.Wrapf(ErrNotAuthorized, "signer %s", signer)
		return
	}

	collateral, err := wallet.RequireCollateral()
	if err != nil {
		return
	}

	plan = NewTxPlan().
		SpendScript(utxo, ByteString{}, c.script).
		Collateral(collateral).
		InvalidBefore(c.validFrom(datum, now)).
		RequiredSigner(signer).
		ChangeAddress(wallet.Address).
		SelectUtxosFrom(wallet.Utxos)

	err = plan.Validate()
	return
}

// validFrom is the slot after the one enclosing the earlier of the lock time
// and now minus the skew allowance.
func (c *VestingContract) validFrom(datum VestingDatum, now time.Time) uint64 {
	from := now.Add(-withdrawClockSkew)
	if lock := datum.LockUntilTime(); lock.Before(from) {
		from = lock
	}
	return c.params.Slots.EnclosingSlot(from) + 1
}

func (c *VestingContract) GetUtxoByTxHash(ctx context.Context, txHash string) (Utxo, error) {
	return lookupScriptUtxo(ctx, c.provider, c.script, c.network, txHash)
}
