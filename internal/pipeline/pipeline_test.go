package pipeline

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"lendscore/internal/domain"
)

func newPipeline(workers int) *Pipeline {
	return New(Options{Workers: workers, Logger: zerolog.Nop()})
}

func record(wallet string, action domain.Action, ts int64, rawAmount string, symbol string, price float64) *domain.Transaction {
	tx := &domain.Transaction{
		Wallet:      wallet,
		Action:      action,
		Timestamp:   ts,
		AssetSymbol: symbol,
	}
	if rawAmount != "" {
		d, err := decimal.NewFromString(rawAmount)
		if err == nil {
			tx.Amount = &d
		}
	}
	if price > 0 {
		tx.AssetPriceUSD = &price
	}
	return tx
}

func TestScoreAll_EmptyInput(t *testing.T) {
	res, err := newPipeline(4).ScoreAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	if len(res.Scores) != 0 {
		t.Errorf("empty ledger must score zero wallets, got %d", len(res.Scores))
	}
	if res.Run.Wallets != 0 {
		t.Errorf("run metadata wallets = %d, want 0", res.Run.Wallets)
	}
}

func TestScoreAll_SingleWalletDegenerate(t *testing.T) {
	// One deposit of 2e9 raw units of a 6-decimal asset at $1 = $2000;
	// single-wallet population collapses to the constant score.
	txs := []*domain.Transaction{
		record("0xa", domain.ActionDeposit, 1_600_000_000, "2000000000", "USDC", 1.0),
	}

	res, err := newPipeline(4).ScoreAll(context.Background(), txs)
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}
	if len(res.Scores) != 1 {
		t.Fatalf("expected 1 score, got %d", len(res.Scores))
	}
	if res.Scores[0].Score != 500 {
		t.Errorf("single-wallet run must score 500, got %d", res.Scores[0].Score)
	}
}

func TestScoreAll_LiquidatedWalletScoresLower(t *testing.T) {
	// X and Y have identical activity except X was liquidated once.
	common := func(w string) []*domain.Transaction {
		return []*domain.Transaction{
			record(w, domain.ActionDeposit, 1000, "1000000000", "USDC", 1.0),
			record(w, domain.ActionBorrow, 2000, "500000000", "USDC", 1.0),
			record(w, domain.ActionRepay, 3000, "500000000", "USDC", 1.0),
		}
	}

	txs := append(common("0xx"), common("0xy")...)
	txs = append(txs, &domain.Transaction{
		Wallet:         "0xx",
		Action:         domain.ActionLiquidationCall,
		Timestamp:      4000,
		LiquidatedUser: "0xx",
		Caller:         "0xz",
		Liquidator:     "0xz",
	})

	res, err := newPipeline(4).ScoreAll(context.Background(), txs)
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}

	byWallet := make(map[string]domain.ScoreRecord)
	for _, s := range res.Scores {
		byWallet[s.Wallet] = s
	}

	x, y := byWallet["0xx"], byWallet["0xy"]
	// The liquidation penalty is -300 flat, but X also gains one extra
	// transaction and one extra distinct action, so compare the raw gap
	// against the penalty minus those increments: 300 - 0.1 - 5.
	want := 300.0 - 0.1 - 5.0
	if diff := y.RawScore - x.RawScore; math.Abs(diff-want) > 1e-9 {
		t.Errorf("raw gap = %f, want %f", diff, want)
	}
	if x.Score >= y.Score {
		t.Errorf("liquidated wallet must rank strictly lower: x=%d y=%d", x.Score, y.Score)
	}
}

func TestScoreAll_BoundsAndExtremes(t *testing.T) {
	txs := []*domain.Transaction{
		record("0xgood", domain.ActionDeposit, 0, "5000000000", "USDC", 1.0),
		record("0xgood", domain.ActionBorrow, 86400, "1000000000", "USDC", 1.0),
		record("0xgood", domain.ActionRepay, 2*86400, "1000000000", "USDC", 1.0),
		record("0xbad", domain.ActionBorrow, 0, "1000000000", "USDC", 1.0),
		record("0xmid", domain.ActionDeposit, 0, "1000000000", "USDC", 1.0),
	}

	res, err := newPipeline(2).ScoreAll(context.Background(), txs)
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}

	var minScore, maxScore = 1000, 0
	for _, s := range res.Scores {
		if s.Score < 0 || s.Score > 1000 {
			t.Errorf("score %d for %s out of range", s.Score, s.Wallet)
		}
		if s.Score < minScore {
			minScore = s.Score
		}
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}
	if minScore != 0 {
		t.Errorf("population min must map to 0, got %d", minScore)
	}
	if maxScore != 1000 {
		t.Errorf("population max must map to 1000, got %d", maxScore)
	}
}

func TestScoreAll_PermutationInvariant(t *testing.T) {
	var txs []*domain.Transaction
	wallets := []string{"0xa", "0xb", "0xc", "0xd", "0xe"}
	for i, w := range wallets {
		txs = append(txs,
			record(w, domain.ActionDeposit, int64(i)*1000, "1000000000", "USDC", 1.0),
			record(w, domain.ActionBorrow, int64(i)*2000, "500000000", "USDC", 1.0),
		)
	}
	if len(wallets) > 2 {
		txs = append(txs, record("0xa", domain.ActionRepay, 9000, "500000000", "USDC", 1.0))
	}

	p := newPipeline(3)
	base, err := p.ScoreAll(context.Background(), txs)
	if err != nil {
		t.Fatalf("ScoreAll failed: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]*domain.Transaction, len(txs))
		copy(shuffled, txs)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := p.ScoreAll(context.Background(), shuffled)
		if err != nil {
			t.Fatalf("ScoreAll failed: %v", err)
		}
		if len(got.Scores) != len(base.Scores) {
			t.Fatalf("wallet count changed under permutation")
		}
		for i := range got.Scores {
			if got.Scores[i].Wallet != base.Scores[i].Wallet || got.Scores[i].Score != base.Scores[i].Score {
				t.Errorf("trial %d: score set changed under permutation: %v vs %v",
					trial, got.Scores[i], base.Scores[i])
			}
		}
	}
}

func TestScoreAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := []*domain.Transaction{
		record("0xa", domain.ActionDeposit, 0, "1000000", "USDC", 1.0),
	}
	if _, err := newPipeline(1).ScoreAll(ctx, txs); err == nil {
		t.Error("cancelled context should abort the run")
	}
}
