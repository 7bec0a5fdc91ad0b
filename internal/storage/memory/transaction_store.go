// Package memory provides in-memory store implementations for tests and
// single-shot CLI runs that do not need external databases.
package memory

import (
	"context"
	"sort"
	"sync"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Transaction // keyed by tx_id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Transaction),
	}
}

// Insert adds one ledger record. Returns ErrDuplicateKey if tx_id exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.TxID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tx.TxID]; exists {
		return storage.ErrDuplicateKey
	}

	cp := *tx
	s.data[tx.TxID] = &cp
	return nil
}

// InsertBulk adds multiple records atomically. Fails entire batch on any
// duplicate, including intra-batch duplicates.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if tx == nil || tx.TxID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[tx.TxID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[tx.TxID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[tx.TxID] = struct{}{}
	}

	for _, tx := range txs {
		cp := *tx
		s.data[tx.TxID] = &cp
	}
	return nil
}

// GetByWallet retrieves all records for a wallet, ordered by timestamp ASC.
func (s *TransactionStore) GetByWallet(_ context.Context, wallet string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.Wallet == wallet {
			cp := *tx
			result = append(result, &cp)
		}
	}

	sortTransactions(result)
	return result, nil
}

// GetAll retrieves the full ledger snapshot, ordered by timestamp ASC, tx_id ASC.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.data))
	for _, tx := range s.data {
		cp := *tx
		result = append(result, &cp)
	}

	sortTransactions(result)
	return result, nil
}

// Count reports the number of stored records.
func (s *TransactionStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data)), nil
}

func sortTransactions(txs []*domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Timestamp != txs[j].Timestamp {
			return txs[i].Timestamp < txs[j].Timestamp
		}
		return txs[i].TxID < txs[j].TxID
	})
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
