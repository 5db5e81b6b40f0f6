package cardano

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

type SqlLiteDatabase struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Database = &SqlLiteDatabase{}

func NewSqlLiteDatabase(path string) (db *SqlLiteDatabase, err error) {
	log.Info().Msgf("opening sqlite db at: '%s'", path)

	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		err = errors.Wrap(err, "failed to open database")
		return
	}

	if err = sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to ping database")
		return
	}

	db = &SqlLiteDatabase{db: sqldb}
	if err = db.initTables(); err != nil {
		_ = sqldb.Close()
		err = errors.Wrap(err, "failed to init tables")
		return
	}

	return
}

func (s *SqlLiteDatabase) initTables() (err error) {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS deposit (
			txhash TEXT PRIMARY KEY,
			network TEXT NOT NULL,
			script_address TEXT NOT NULL,
			owner TEXT NOT NULL,
			beneficiary TEXT NOT NULL,
			lovelace INTEGER NOT NULL,
			lock_until INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			withdraw_tx TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS giftcard (
			txhash TEXT PRIMARY KEY,
			network TEXT NOT NULL,
			token_name TEXT NOT NULL,
			param_txhash TEXT NOT NULL,
			param_index INTEGER NOT NULL,
			policy_id TEXT NOT NULL,
			redeem_address TEXT NOT NULL,
			lovelace INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			redeem_tx TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deposit_created ON deposit(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_giftcard_created ON giftcard(created_at)`,
	}

	for i, query := range queries {
		_, err = s.db.Exec(query)
		if err != nil {
			err = errors.Wrapf(err, "failed to execute query: %d", i)
			return
		}
	}

	return
}

func (s *SqlLiteDatabase) Close() error {
	return errors.WithStack(s.db.Close())
}

func (s *SqlLiteDatabase) AddDeposit(r DepositRecord) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err = s.db.Exec(`
		INSERT INTO deposit (txhash, network, script_address, owner, beneficiary, lovelace, lock_until, created_at, withdraw_tx)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TxHash, string(r.Network), r.ScriptAddress, r.Owner, r.Beneficiary, r.Lovelace, r.LockUntil, r.CreatedAt.UnixMilli(), r.WithdrawTx)
	return errors.Wrapf(err, "failed to insert deposit %s", r.TxHash)
}

const depositColumns = `txhash, network, script_address, owner, beneficiary, lovelace, lock_until, created_at, withdraw_tx`

type scanner interface {
	Scan(dest ...any) error
}

func scanDeposit(row scanner) (r DepositRecord, err error) {
	var network string
	var createdAt int64
	err = row.Scan(&r.TxHash, &network, &r.ScriptAddress, &r.Owner, &r.Beneficiary, &r.Lovelace, &r.LockUntil, &createdAt, &r.WithdrawTx)
	r.Network = Network(network)
	r.CreatedAt = time.UnixMilli(createdAt)
	return
}

func (s *SqlLiteDatabase) GetDeposit(txHash string) (r DepositRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err = scanDeposit(s.db.QueryRow(`SELECT `+depositColumns+` FROM deposit WHERE txhash = ?`, txHash))
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.Wrapf(ErrRecordNotFound, "deposit %s", txHash)
	}
	return r, errors.WithStack(err)
}

func (s *SqlLiteDatabase) ListDeposits(pendingOnly bool) (records []DepositRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + depositColumns + ` FROM deposit`
	if pendingOnly {
		query += ` WHERE withdraw_tx = ''`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	records = make([]DepositRecord, 0)
	for rows.Next() {
		r, err := scanDeposit(rows)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		records = append(records, r)
	}

	return records, errors.WithStack(rows.Err())
}

func (s *SqlLiteDatabase) MarkDepositWithdrawn(txHash, withdrawTx string) error {
	return s.markSpent("deposit", "withdraw_tx", txHash, withdrawTx)
}

func (s *SqlLiteDatabase) AddGiftCard(r GiftCardRecord) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err = s.db.Exec(`
		INSERT INTO giftcard (txhash, network, token_name, param_txhash, param_index, policy_id, redeem_address, lovelace, created_at, redeem_tx)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TxHash, string(r.Network), r.TokenName.String(), r.ParamUtxo.Hash, r.ParamUtxo.Index, r.PolicyId.String(), r.RedeemAddress, r.Lovelace, r.CreatedAt.UnixMilli(), r.RedeemTx)
	return errors.Wrapf(err, "failed to insert gift card %s", r.TxHash)
}

const giftCardColumns = `txhash, network, token_name, param_txhash, param_index, policy_id, redeem_address, lovelace, created_at, redeem_tx`

func scanGiftCard(row scanner) (r GiftCardRecord, err error) {
	var network, tokenName, policyId string
	var createdAt int64
	if err = row.Scan(&r.TxHash, &network, &tokenName, &r.ParamUtxo.Hash, &r.ParamUtxo.Index, &policyId, &r.RedeemAddress, &r.Lovelace, &createdAt, &r.RedeemTx); err != nil {
		return
	}
	r.Network = Network(network)
	r.CreatedAt = time.UnixMilli(createdAt)
	if r.TokenName, err = HexBytesFromString(tokenName); err != nil {
		return
	}
	r.PolicyId, err = HexBytesFromString(policyId)
	return
}

func (s *SqlLiteDatabase) GetGiftCard(txHash string) (r GiftCardRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err = scanGiftCard(s.db.QueryRow(`SELECT `+giftCardColumns+` FROM giftcard WHERE txhash = ?`, txHash))
	if errors.Is(err, sql.ErrNoRows) {
		err = errors.Wrapf(ErrRecordNotFound, "gift card %s", txHash)
	}
	return r, errors.WithStack(err)
}

func (s *SqlLiteDatabase) ListGiftCards(pendingOnly bool) (records []GiftCardRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + giftCardColumns + ` FROM giftcard`
	if pendingOnly {
		query += ` WHERE redeem_tx = ''`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	records = make([]GiftCardRecord, 0)
	for rows.Next() {
		r, err := scanGiftCard(rows)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		records = append(records, r)
	}

	return records, errors.WithStack(rows.Err())
}

func (s *SqlLiteDatabase) MarkGiftCardRedeemed(txHash, redeemTx string) error {
	return s.markSpent("giftcard", "redeem_tx", txHash, redeemTx)
}

// markSpent sets the spending tx column of a record. Table and column names
// are constants from this file, never user input.
func (s *SqlLiteDatabase) markSpent(table, column, txHash, spendTx string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`UPDATE `+table+` SET `+column+` = ? WHERE txhash = ?`, spendTx, txHash)
	if err != nil {
		return errors.WithStack(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errors.Wrapf(ErrRecordNotFound, "%s %s", table, txHash)
	}
	return nil
}
