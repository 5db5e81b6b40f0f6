package cardano

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type InMemoryDatabase struct {
	deposits  map[string]DepositRecord
	giftCards map[string]GiftCardRecord
	mu        sync.RWMutex
}

var _ Database = &InMemoryDatabase{}

func NewInMemoryDatabase() *InMemoryDatabase {
	return &InMemoryDatabase{
		deposits:  make(map[string]DepositRecord),
		giftCards: make(map[string]GiftCardRecord),
	}
}

func (db *InMemoryDatabase) Close() error {
	return nil
}

func (db *InMemoryDatabase) AddDeposit(r DepositRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.deposits[r.TxHash]; exists {
		return errors.Errorf("deposit %s already recorded", r.TxHash)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	db.deposits[r.TxHash] = r
	return nil
}

func (db *InMemoryDatabase) GetDeposit(txHash string) (DepositRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	r, ok := db.deposits[txHash]
	if !ok {
		return r, errors.Wrapf(ErrRecordNotFound, "deposit %s", txHash)
	}
	return r, nil
}

func (db *InMemoryDatabase) ListDeposits(pendingOnly bool) ([]DepositRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	records := make([]DepositRecord, 0, len(db.deposits))
	for _, r := range db.deposits {
		if !pendingOnly || r.Pending() {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (db *InMemoryDatabase) MarkDepositWithdrawn(txHash, withdrawTx string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.deposits[txHash]
	if !ok {
		return errors.Wrapf(ErrRecordNotFound, "deposit %s", txHash)
	}
	r.WithdrawTx = withdrawTx
	db.deposits[txHash] = r
	return nil
}

func (db *InMemoryDatabase) AddGiftCard(r GiftCardRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.giftCards[r.TxHash]; exists {
		return errors.Errorf("gift card %s already recorded", r.TxHash)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	db.giftCards[r.TxHash] = r
	return nil
}

func (db *InMemoryDatabase) GetGiftCard(txHash string) (GiftCardRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	r, ok := db.giftCards[txHash]
	if !ok {
		return r, errors.Wrapf(ErrRecordNotFound, "gift card %s", txHash)
	}
	return r, nil
}

func (db *InMemoryDatabase) ListGiftCards(pendingOnly bool) ([]GiftCardRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	records := make([]GiftCardRecord, 0, len(db.giftCards))
	for _, r := range db.giftCards {
		if !pendingOnly || r.Pending() {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

func (db *InMemoryDatabase) MarkGiftCardRedeemed(txHash, redeemTx string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.giftCards[txHash]
	if !ok {
		return errors.Wrapf(ErrRecordNotFound, "gift card %s", txHash)
	}
	r.RedeemTx = redeemTx
	db.giftCards[txHash] = r
	return nil
}
