// Package scoring maps wallet feature vectors to bounded reputation scores.
//
// The rule formula is fixed and population-independent; only the final
// rescaling step looks across wallets.
package scoring

import "lendscore/internal/domain"

// Formula weights. Base 500 with additive rewards and penalties; see
// RawScore for how they combine.
const (
	baseScore = 500.0

	weightTransactions = 0.1
	weightUniqueAction = 5.0
	weightDurationDays = 0.5
	weightRepayRatio   = 200.0

	netDepositDivisor = 1000.0
	netDepositCap     = 100.0

	penaltyLiquidated    = 300.0
	penaltyOutstanding   = 50.0
	penaltyLowRepayRatio = 100.0 // ratio < 0.5
	penaltyNoRepay       = 150.0 // ratio == 0, stacks with the low-ratio penalty
)

// RawScore applies the weighted rule formula to one feature vector. The
// result is unbounded and signed; Rescale bounds it against the population.
// Deterministic and side-effect-free.
//
// The outstanding-debt penalty is flat, not scaled by debt size, and the
// net-deposit reward is capped so large depositors cannot dominate the raw
// score. A wallet with ratio exactly 0 takes both repayment penalties.
func RawScore(f *domain.WalletFeatures) float64 {
	score := baseScore

	score += float64(f.TotalTransactions) * weightTransactions
	score += float64(f.UniqueActions) * weightUniqueAction
	score += float64(f.DurationDays) * weightDurationDays
	score += clamp(f.NetDepositUSD/netDepositDivisor, 0, netDepositCap)
	score += f.RepayToBorrowRatio * weightRepayRatio

	score -= float64(f.NumLiquidatedAsUser) * penaltyLiquidated
	if f.HasOutstandingDebt {
		score -= penaltyOutstanding
	}
	if f.RepayToBorrowRatio < 0.5 {
		score -= penaltyLowRepayRatio
	}
	if f.RepayToBorrowRatio == 0 {
		score -= penaltyNoRepay
	}

	return score
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
