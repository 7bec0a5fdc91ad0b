// Package pricing converts raw native-unit transaction amounts into
// approximate USD values.
package pricing

import "strings"

// DefaultExponent is assumed for symbols absent from the table. Most ERC-20
// tokens use 18 fractional decimals, so an unrecognized symbol still yields a
// usable value; relative comparability within that symbol is preserved even
// when the absolute magnitude is off.
const DefaultExponent int32 = 18

// defaultExponents covers the assets commonly seen in lending-pool ledgers.
var defaultExponents = map[string]int32{
	"USDC":   6,
	"USDT":   6,
	"DAI":    18,
	"TUSD":   18,
	"WETH":   18,
	"WMATIC": 18,
	"WPOL":   18,
	"AAVE":   18,
	"LINK":   18,
	"WBTC":   8,
}

// DecimalTable maps asset symbols to their fractional-unit exponent.
// The table is immutable after construction; tests extend it via overrides
// instead of mutating shared state.
type DecimalTable struct {
	exponents map[string]int32
}

// NewDecimalTable builds a table from the built-in defaults plus overrides.
// Override keys are matched case-insensitively and win over defaults.
func NewDecimalTable(overrides map[string]int32) DecimalTable {
	m := make(map[string]int32, len(defaultExponents)+len(overrides))
	for sym, exp := range defaultExponents {
		m[sym] = exp
	}
	for sym, exp := range overrides {
		m[strings.ToUpper(sym)] = exp
	}
	return DecimalTable{exponents: m}
}

// Exponent returns the fractional-unit exponent for a symbol,
// or DefaultExponent when the symbol is not tracked.
func (t DecimalTable) Exponent(symbol string) int32 {
	if exp, ok := t.exponents[strings.ToUpper(symbol)]; ok {
		return exp
	}
	return DefaultExponent
}
