package domain

// WalletFeatures is the fixed-shape aggregate over one wallet's transactions.
// Every wallet appearing in the input ledger maps to exactly one value;
// sum-type features default to 0, never to an undefined value.
type WalletFeatures struct {
	Wallet string

	TotalTransactions int
	UniqueActions     int
	DurationDays      int64 // whole days between earliest and latest record

	TotalDepositUSD float64
	TotalBorrowUSD  float64
	TotalRepayUSD   float64
	TotalRedeemUSD  float64

	NetDepositUSD float64 // deposit - redeem, may be negative
	NetBorrowUSD  float64 // borrow - repay, may be negative

	// Ratios are defined as 0 when the denominator is 0.
	RepayToBorrowRatio   float64
	BorrowToDepositRatio float64

	NumLiquidatedAsUser      int
	NumLiquidationsInitiated int

	HasOutstandingDebt bool // NetBorrowUSD > 0
}
