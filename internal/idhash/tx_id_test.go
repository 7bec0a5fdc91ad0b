package idhash

import (
	"testing"

	"github.com/shopspring/decimal"

	"lendscore/internal/domain"
)

func TestComputeTxID_Deterministic(t *testing.T) {
	amount := decimal.NewFromInt(1000000)
	tx := &domain.Transaction{
		Wallet:      "0xabc",
		Action:      domain.ActionDeposit,
		Timestamp:   1629178166,
		Amount:      &amount,
		AssetSymbol: "USDC",
	}

	id1 := ComputeTxID(tx)
	id2 := ComputeTxID(tx)

	if len(id1) != 64 {
		t.Errorf("ComputeTxID() length = %d, want 64", len(id1))
	}
	if id1 != id2 {
		t.Errorf("ComputeTxID() not deterministic: %s != %s", id1, id2)
	}
}

func TestComputeTxID_DistinctInputsDistinctIDs(t *testing.T) {
	amount := decimal.NewFromInt(1000000)
	base := domain.Transaction{
		Wallet:      "0xabc",
		Action:      domain.ActionDeposit,
		Timestamp:   1629178166,
		Amount:      &amount,
		AssetSymbol: "USDC",
	}

	other := base
	other.Action = domain.ActionBorrow

	if ComputeTxID(&base) == ComputeTxID(&other) {
		t.Error("different actions must yield different ids")
	}

	noAmount := base
	noAmount.Amount = nil
	if ComputeTxID(&base) == ComputeTxID(&noAmount) {
		t.Error("absent amount must yield a different id")
	}
}
