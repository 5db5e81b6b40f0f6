package cardano

import (
	"fmt"
)

var (
	ErrNetworkInvalid       = fmt.Errorf("invalid network")
	ErrInvalidAddress       = fmt.Errorf("invalid address")
	ErrByronAddress         = fmt.Errorf("byron addresses are not supported")
	ErrNotKeyAddress        = fmt.Errorf("address payment part is not a key hash")
	ErrInvalidAmount        = fmt.Errorf("amount must be a positive number of ADA")
	ErrInvalidDuration      = fmt.Errorf("lock seconds must be a positive integer")
	ErrSecretNotFound       = fmt.Errorf("secret key not found")
	ErrUnsupportedSecret    = fmt.Errorf("unsupported secret key format")
	ErrNoUtxos              = fmt.Errorf("no utxos found")
	ErrNoCollateral         = fmt.Errorf("no collateral found")
	ErrUtxoNotFound         = fmt.Errorf("utxo not found")
	ErrInvalidDatum         = fmt.Errorf("invalid datum")
	ErrInvalidScript        = fmt.Errorf("invalid plutus script")
	ErrValidatorNotFound    = fmt.Errorf("validator not found in blueprint")
	ErrScriptHashMismatch   = fmt.Errorf("script hash does not match blueprint")
	ErrInvalidPlan          = fmt.Errorf("invalid transaction plan")
	ErrStillLocked          = fmt.Errorf("funds are still locked")
	ErrNotAuthorized        = fmt.Errorf("wallet is neither owner nor beneficiary")
	ErrRecordNotFound       = fmt.Errorf("record not found")
	ErrTransactionNotFound  = fmt.Errorf("transaction not found")
	ErrRpcFailed            = fmt.Errorf("rpc failed")
	ErrSubmitFailed         = fmt.Errorf("transaction submission failed")
	ErrInvalidTokenName     = fmt.Errorf("invalid token name")
	ErrInvalidTransactionId = fmt.Errorf("invalid transaction id")
	ErrParamsUnset          = fmt.Errorf("contract parameters not set")
	ErrApiKeyNotSet         = fmt.Errorf("BLOCKFROST_API_KEY not set")
)

var AllErrors = []error{
	ErrNetworkInvalid,
	ErrInvalidAddress,
	ErrByronAddress,
	ErrNotKeyAddress,
	ErrInvalidAmount,
	ErrInvalidDuration,
	ErrSecretNotFound,
	ErrUnsupportedSecret,
	ErrNoUtxos,
	ErrNoCollateral,
	ErrUtxoNotFound,
	ErrInvalidDatum,
	ErrInvalidScript,
	ErrValidatorNotFound,
	ErrScriptHashMismatch,
	ErrInvalidPlan,
	ErrStillLocked,
	ErrNotAuthorized,
	ErrRecordNotFound,
	ErrTransactionNotFound,
	ErrRpcFailed,
	ErrSubmitFailed,
	ErrInvalidTokenName,
	ErrInvalidTransactionId,
	ErrParamsUnset,
	ErrApiKeyNotSet,
}
