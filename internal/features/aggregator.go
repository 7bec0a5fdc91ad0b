// Package features reduces a wallet's ledger partition into the fixed
// feature vector consumed by the rule scorer.
package features

import (
	"sort"

	"lendscore/internal/domain"
	"lendscore/internal/pricing"
)

const secondsPerDay = 86400

// Aggregator partitions transactions by wallet and computes one
// WalletFeatures per partition. It holds no mutable state and is safe for
// concurrent use.
type Aggregator struct {
	valuer pricing.Valuer
}

// NewAggregator creates an aggregator using the given valuer for per-record
// USD conversion.
func NewAggregator(valuer pricing.Valuer) *Aggregator {
	return &Aggregator{valuer: valuer}
}

// Aggregate reduces the full transaction set to one feature vector per
// distinct wallet, sorted by wallet for deterministic output. Partitions are
// independent; Aggregate never mutates its input.
func (a *Aggregator) Aggregate(txs []*domain.Transaction) []*domain.WalletFeatures {
	partitions := Partition(txs)

	wallets := make([]string, 0, len(partitions))
	for w := range partitions {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)

	result := make([]*domain.WalletFeatures, len(wallets))
	for i, w := range wallets {
		result[i] = a.Reduce(w, partitions[w])
	}
	return result
}

// Partition groups transactions by subject wallet, preserving input order
// within each partition.
func Partition(txs []*domain.Transaction) map[string][]*domain.Transaction {
	partitions := make(map[string][]*domain.Transaction)
	for _, tx := range txs {
		if tx == nil || tx.Wallet == "" {
			continue
		}
		partitions[tx.Wallet] = append(partitions[tx.Wallet], tx)
	}
	return partitions
}

// Reduce computes the feature vector for one wallet's partition.
//
// Duration is a whole-day truncation of the timestamp span: a 23-hour span
// counts as 0 days. Ratios return 0 on a zero denominator. On a liquidation
// record the wallet is counted once per role it matches; matching both the
// victim and caller/liquidator roles on the same record feeds both counters.
func (a *Aggregator) Reduce(wallet string, txs []*domain.Transaction) *domain.WalletFeatures {
	f := &domain.WalletFeatures{Wallet: wallet}
	if len(txs) == 0 {
		return f
	}

	f.TotalTransactions = len(txs)

	actions := make(map[domain.Action]struct{})
	minTS, maxTS := txs[0].Timestamp, txs[0].Timestamp

	for _, tx := range txs {
		actions[tx.Action] = struct{}{}
		if tx.Timestamp < minTS {
			minTS = tx.Timestamp
		}
		if tx.Timestamp > maxTS {
			maxTS = tx.Timestamp
		}

		usd := a.valuer.USDValue(tx)
		switch tx.Action {
		case domain.ActionDeposit:
			f.TotalDepositUSD += usd
		case domain.ActionBorrow:
			f.TotalBorrowUSD += usd
		case domain.ActionRepay:
			f.TotalRepayUSD += usd
		case domain.ActionRedeem:
			f.TotalRedeemUSD += usd
		case domain.ActionLiquidationCall:
			if tx.LiquidatedUser == wallet {
				f.NumLiquidatedAsUser++
			}
			if tx.Caller == wallet || tx.Liquidator == wallet {
				f.NumLiquidationsInitiated++
			}
		}
	}

	f.UniqueActions = len(actions)
	f.DurationDays = (maxTS - minTS) / secondsPerDay

	f.NetDepositUSD = f.TotalDepositUSD - f.TotalRedeemUSD
	f.NetBorrowUSD = f.TotalBorrowUSD - f.TotalRepayUSD

	f.RepayToBorrowRatio = safeRatio(f.TotalRepayUSD, f.TotalBorrowUSD)
	f.BorrowToDepositRatio = safeRatio(f.TotalBorrowUSD, f.TotalDepositUSD)

	f.HasOutstandingDebt = f.NetBorrowUSD > 0

	return f
}

// safeRatio returns num/den, or 0 when den is not positive.
func safeRatio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}
