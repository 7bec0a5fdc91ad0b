package ingest

import (
	"strings"
	"testing"

	"lendscore/internal/domain"
)

func TestReadCSV_Basic(t *testing.T) {
	input := `wallet,action,timestamp,amount,asset_symbol,asset_price_usd,liquidated_user,caller,liquidator
0xabc,Deposit,1629178166,2000000000,USDC,0.9938,,,
0xdef,liquidationcall,1629178200,,,,0xdef,0xbot,0xbot
`

	txs, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(txs))
	}

	dep := txs[0]
	if dep.Wallet != "0xabc" || dep.Action != domain.ActionDeposit {
		t.Errorf("row 1 = %q/%q", dep.Wallet, dep.Action)
	}
	if dep.Amount == nil || dep.Amount.String() != "2000000000" {
		t.Errorf("amount = %v, want 2000000000", dep.Amount)
	}
	if dep.AssetPriceUSD == nil || *dep.AssetPriceUSD != 0.9938 {
		t.Errorf("price = %v, want 0.9938", dep.AssetPriceUSD)
	}
	if dep.TxID == "" {
		t.Error("tx_id not assigned")
	}

	liq := txs[1]
	if liq.LiquidatedUser != "0xdef" || liq.Caller != "0xbot" || liq.Liquidator != "0xbot" {
		t.Errorf("liquidation roles = %q/%q/%q", liq.LiquidatedUser, liq.Caller, liq.Liquidator)
	}
}

func TestReadCSV_ColumnOrderFree(t *testing.T) {
	input := `timestamp,wallet,action
100,0xabc,borrow
`

	txs, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(txs) != 1 || txs[0].Wallet != "0xabc" || txs[0].Timestamp != 100 {
		t.Fatalf("unexpected parse: %+v", txs[0])
	}
}

func TestReadCSV_UnparseableCellsBecomeAbsent(t *testing.T) {
	input := `wallet,action,timestamp,amount,asset_price_usd
0xabc,deposit,nope,lots,free
`

	txs, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("row must not be rejected, got %d rows", len(txs))
	}
	tx := txs[0]
	if tx.Timestamp != 0 || tx.Amount != nil || tx.AssetPriceUSD != nil {
		t.Errorf("unparseable cells not absent: ts=%d amount=%v price=%v",
			tx.Timestamp, tx.Amount, tx.AssetPriceUSD)
	}
}

func TestReadCSV_ShortRows(t *testing.T) {
	input := `wallet,action,timestamp,amount
0xabc,deposit
`

	txs, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("short row must not be rejected, got %d rows", len(txs))
	}
	if txs[0].Timestamp != 0 || txs[0].Amount != nil {
		t.Errorf("missing cells not absent: %+v", txs[0])
	}
}

func TestReadCSV_Empty(t *testing.T) {
	txs, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("expected no records, got %d", len(txs))
	}
}
