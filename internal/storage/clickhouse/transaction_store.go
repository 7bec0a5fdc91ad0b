package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// TransactionStore implements storage.TransactionStore using ClickHouse.
//
// Amounts are stored as Nullable(String) decimal text to keep raw smallest-unit
// values exact; ledgers carry amounts far beyond int64 range.
type TransactionStore struct {
	conn *Conn
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(conn *Conn) *TransactionStore {
	return &TransactionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const txColumns = `
	tx_id, wallet, action, ts,
	amount, asset_symbol, asset_price_usd,
	liquidated_user, caller, liquidator
`

// Insert adds one ledger record. Returns ErrDuplicateKey if tx_id exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) error {
	if err := validateTransaction(tx); err != nil {
		return err
	}

	// ReplacingMergeTree would silently collapse the duplicate at merge time,
	// but the ledger wants append-only semantics with an explicit error.
	exists, err := s.exists(ctx, tx.TxID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `INSERT INTO transactions (` + txColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	err = s.conn.Exec(ctx, query,
		tx.TxID, tx.Wallet, string(tx.Action), tx.Timestamp,
		amountText(tx.Amount), tx.AssetSymbol, tx.AssetPriceUSD,
		tx.LiquidatedUser, tx.Caller, tx.Liquidator,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// InsertBulk adds multiple records atomically. Fails the entire batch on any
// duplicate, including intra-batch duplicates.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if err := validateTransaction(tx); err != nil {
			return err
		}
		if _, dup := seen[tx.TxID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[tx.TxID] = struct{}{}
	}

	for _, tx := range txs {
		exists, err := s.exists(ctx, tx.TxID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO transactions (`+txColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, tx := range txs {
		err = batch.Append(
			tx.TxID, tx.Wallet, string(tx.Action), tx.Timestamp,
			amountText(tx.Amount), tx.AssetSymbol, tx.AssetPriceUSD,
			tx.LiquidatedUser, tx.Caller, tx.Liquidator,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByWallet retrieves all records for a wallet, ordered by timestamp ASC.
func (s *TransactionStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions FINAL
		WHERE wallet = ?
		ORDER BY ts ASC, tx_id ASC
	`

	rows, err := s.conn.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query by wallet: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetAll retrieves the full ledger snapshot, ordered by timestamp ASC, tx_id ASC.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions FINAL
		ORDER BY ts ASC, tx_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// Count reports the number of stored records.
func (s *TransactionStore) Count(ctx context.Context) (int64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM transactions FINAL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return int64(count), nil
}

// exists checks if a record with the given tx_id exists.
func (s *TransactionStore) exists(ctx context.Context, txID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM transactions FINAL WHERE tx_id = ?`, txID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func validateTransaction(tx *domain.Transaction) error {
	if tx == nil || tx.TxID == "" || tx.Wallet == "" {
		return storage.ErrInvalidInput
	}
	return nil
}

func amountText(amount *decimal.Decimal) *string {
	if amount == nil {
		return nil
	}
	s := amount.String()
	return &s
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanTransactions scans multiple rows into a slice.
func scanTransactions(rows chRows) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction

	for rows.Next() {
		var (
			tx     domain.Transaction
			action string
			amount *string
		)
		err := rows.Scan(
			&tx.TxID, &tx.Wallet, &action, &tx.Timestamp,
			&amount, &tx.AssetSymbol, &tx.AssetPriceUSD,
			&tx.LiquidatedUser, &tx.Caller, &tx.Liquidator,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		tx.Action = domain.Action(action)
		if amount != nil {
			d, err := decimal.NewFromString(*amount)
			if err != nil {
				return nil, fmt.Errorf("parse stored amount %q: %w", *amount, err)
			}
			tx.Amount = &d
		}
		txs = append(txs, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
