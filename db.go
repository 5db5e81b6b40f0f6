package cardano

import (
	"time"
)

// DepositRecord is a vesting deposit submitted from this machine.
type DepositRecord struct {
	TxHash        string    `json:"txHash"`
	Network       Network   `json:"network"`
	ScriptAddress string    `json:"scriptAddress"`
	Owner         string    `json:"owner"`
	Beneficiary   string    `json:"beneficiary"`
	Lovelace      uint64    `json:"lovelace"`
	LockUntil     int64     `json:"lockUntil"`
	CreatedAt     time.Time `json:"createdAt"`
	WithdrawTx    string    `json:"withdrawTx,omitempty"`
}

func (r DepositRecord) Pending() bool {
	return r.WithdrawTx == ""
}

// GiftCardRecord keeps the parameters needed to find a gift card again.
type GiftCardRecord struct {
	TxHash        string    `json:"txHash"`
	Network       Network   `json:"network"`
	TokenName     HexBytes  `json:"tokenName"`
	ParamUtxo     TxRef     `json:"paramUtxo"`
	PolicyId      HexBytes  `json:"policyId"`
	RedeemAddress string    `json:"redeemAddress"`
	Lovelace      uint64    `json:"lovelace"`
	CreatedAt     time.Time `json:"createdAt"`
	RedeemTx      string    `json:"redeemTx,omitempty"`
}

func (r GiftCardRecord) Pending() bool {
	return r.RedeemTx == ""
}

type Database interface {
	AddDeposit(record DepositRecord) error
	GetDeposit(txHash string) (DepositRecord, error)
	ListDeposits(pendingOnly bool) ([]DepositRecord, error)
	MarkDepositWithdrawn(txHash, withdrawTx string) error

	AddGiftCard(record GiftCardRecord) error
	GetGiftCard(txHash string) (GiftCardRecord, error)
	ListGiftCards(pendingOnly bool) ([]GiftCardRecord, error)
	MarkGiftCardRedeemed(txHash, redeemTx string) error

	Close() error
}
