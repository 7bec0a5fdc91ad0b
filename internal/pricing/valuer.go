package pricing

import (
	"github.com/shopspring/decimal"

	"lendscore/internal/domain"
)

// Valuer computes per-record USD values. It is a pure function of the record
// and the decimal table, safe for concurrent use across records.
type Valuer struct {
	table DecimalTable
}

// NewValuer wires a decimal table into a Valuer.
func NewValuer(table DecimalTable) Valuer {
	return Valuer{table: table}
}

// USDValue returns the approximate USD value of one transaction:
// (raw_amount / 10^exponent) * asset_usd_price.
//
// Raw amounts reach 1e27 for 18-decimal assets, so the unit shift is done in
// decimal arithmetic before collapsing to float64. Records missing amount,
// symbol, or price value to 0 rather than failing.
func (v Valuer) USDValue(tx *domain.Transaction) float64 {
	if tx == nil || tx.Amount == nil || tx.AssetSymbol == "" || tx.AssetPriceUSD == nil {
		return 0
	}

	exp := v.table.Exponent(tx.AssetSymbol)
	usd := tx.Amount.Shift(-exp).Mul(decimal.NewFromFloat(*tx.AssetPriceUSD))

	f, _ := usd.Float64()
	if f < 0 {
		return 0
	}
	return f
}
