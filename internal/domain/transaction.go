package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Action is the category of a ledger entry. Parsing is case-insensitive and
// permissive: unknown kinds are kept as-is (lowercased) so they still count
// toward per-wallet activity totals, they just never contribute to value sums.
type Action string

// Recognized action kinds.
const (
	ActionDeposit         Action = "deposit"
	ActionBorrow          Action = "borrow"
	ActionRepay           Action = "repay"
	ActionRedeem          Action = "redeemunderlying"
	ActionLiquidationCall Action = "liquidationcall"
)

// ParseAction normalizes a raw action string from the ledger.
func ParseAction(raw string) Action {
	return Action(strings.ToLower(strings.TrimSpace(raw)))
}

// Recognized reports whether the action is part of the closed enumeration.
func (a Action) Recognized() bool {
	switch a {
	case ActionDeposit, ActionBorrow, ActionRepay, ActionRedeem, ActionLiquidationCall:
		return true
	}
	return false
}

// Transaction is one immutable ledger entry for a lending pool.
// Corresponds to the transactions table in ClickHouse.
//
// Optional fields are pointers; nil means the ledger carried no value or the
// value was unparseable. Records are never rejected for missing fields.
type Transaction struct {
	TxID          string           // deterministic identity hash, see idhash
	Wallet        string           // subject wallet address
	Action        Action           // lowercased action kind
	Timestamp     int64            // Unix seconds
	Amount        *decimal.Decimal // raw amount in native smallest units
	AssetSymbol   string           // token symbol, "" if absent
	AssetPriceUSD *float64         // USD price per whole token

	// Liquidation roles, set only for liquidationcall records. Any of the
	// three may be empty or equal to another.
	LiquidatedUser string
	Caller         string
	Liquidator     string
}
