package memory

import (
	"context"
	"errors"
	"testing"

	"lendscore/internal/domain"
	"lendscore/internal/storage"
)

func ledgerTx(id, wallet string, ts int64) *domain.Transaction {
	return &domain.Transaction{
		TxID:      id,
		Wallet:    wallet,
		Action:    domain.ActionDeposit,
		Timestamp: ts,
	}
}

func TestTransactionStore_InsertAndGet(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, ledgerTx("t1", "0xa", 100)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByWallet(ctx, "0xa")
	if err != nil {
		t.Fatalf("GetByWallet failed: %v", err)
	}
	if len(got) != 1 || got[0].TxID != "t1" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestTransactionStore_DuplicateKey(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, ledgerTx("t1", "0xa", 100)); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	err := store.Insert(ctx, ledgerTx("t1", "0xb", 200))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestTransactionStore_InsertBulkAtomic(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	// Intra-batch duplicate fails the whole batch.
	err := store.InsertBulk(ctx, []*domain.Transaction{
		ledgerTx("t1", "0xa", 100),
		ledgerTx("t1", "0xa", 200),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("failed batch must insert nothing, count = %d", count)
	}
}

func TestTransactionStore_GetAllOrdered(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Transaction{
		ledgerTx("t3", "0xb", 300),
		ledgerTx("t1", "0xa", 100),
		ledgerTx("t2", "0xa", 100), // same timestamp, breaks tie on tx_id
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	want := []string{"t1", "t2", "t3"}
	for i, id := range want {
		if got[i].TxID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].TxID, id)
		}
	}
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil record: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(ctx, ledgerTx("", "0xa", 1)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty tx_id: expected ErrInvalidInput, got %v", err)
	}
}
