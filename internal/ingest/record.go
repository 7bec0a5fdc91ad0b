// Package ingest parses lending-protocol ledger exports into domain records.
//
// Parsing is deliberately lenient: indexer exports mix numeric encodings
// (quoted strings, plain numbers, scientific notation) and omit fields. A
// field that cannot be parsed as its expected type is treated as absent, the
// row itself is never rejected.
package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"lendscore/internal/domain"
	"lendscore/internal/idhash"
)

// ParseRecord parses a single JSON-encoded ledger entry. Used by the live
// tailer, which receives one entry per websocket message.
func ParseRecord(data []byte) (*domain.Transaction, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw.toTransaction(), nil
}

// rawRecord mirrors one entry of an indexer export. Scalars arrive as either
// JSON numbers or quoted strings depending on the exporter version.
type rawRecord struct {
	UserWallet string          `json:"userWallet"`
	Wallet     string          `json:"wallet"` // flat-export alias
	Action     string          `json:"action"`
	Timestamp  json.RawMessage `json:"timestamp"`
	ActionData rawActionData   `json:"actionData"`

	// Flat-export aliases for actionData fields.
	Amount        json.RawMessage `json:"amount"`
	AssetSymbol   string          `json:"assetSymbol"`
	AssetPriceUSD json.RawMessage `json:"assetPriceUSD"`
}

type rawActionData struct {
	Amount         json.RawMessage `json:"amount"`
	AssetSymbol    string          `json:"assetSymbol"`
	AssetPriceUSD  json.RawMessage `json:"assetPriceUSD"`
	LiquidatedUser string          `json:"userId"`
	Caller         string          `json:"callerId"`
	Liquidator     string          `json:"liquidatorId"`
}

// toTransaction converts a parsed raw record into a domain transaction,
// assigning its deterministic identity hash.
func (r *rawRecord) toTransaction() *domain.Transaction {
	wallet := r.UserWallet
	if wallet == "" {
		wallet = r.Wallet
	}

	symbol := r.ActionData.AssetSymbol
	if symbol == "" {
		symbol = r.AssetSymbol
	}

	amount := parseAmount(r.ActionData.Amount)
	if amount == nil {
		amount = parseAmount(r.Amount)
	}

	price := parsePrice(r.ActionData.AssetPriceUSD)
	if price == nil {
		price = parsePrice(r.AssetPriceUSD)
	}

	tx := &domain.Transaction{
		Wallet:         strings.TrimSpace(wallet),
		Action:         domain.ParseAction(r.Action),
		Timestamp:      parseTimestamp(r.Timestamp),
		Amount:         amount,
		AssetSymbol:    strings.TrimSpace(symbol),
		AssetPriceUSD:  price,
		LiquidatedUser: strings.TrimSpace(r.ActionData.LiquidatedUser),
		Caller:         strings.TrimSpace(r.ActionData.Caller),
		Liquidator:     strings.TrimSpace(r.ActionData.Liquidator),
	}
	tx.TxID = idhash.ComputeTxID(tx)
	return tx
}

// parseScalar unwraps a JSON scalar into its textual form. Returns "" when
// the value is absent, null, or not a scalar.
func parseScalar(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return ""
	}
	return trimmed
}

// parseAmount parses a raw smallest-unit amount. Negative or unparseable
// values are treated as absent.
func parseAmount(raw json.RawMessage) *decimal.Decimal {
	return parseDecimalText(parseScalar(raw))
}

func parseDecimalText(text string) *decimal.Decimal {
	if text == "" {
		return nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil || d.IsNegative() {
		return nil
	}
	return &d
}

// parsePrice parses a USD price. Negative or unparseable values are absent.
func parsePrice(raw json.RawMessage) *float64 {
	return parsePriceText(parseScalar(raw))
}

func parsePriceText(text string) *float64 {
	if text == "" {
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

// parseTimestamp parses Unix seconds. Unparseable values yield 0.
func parseTimestamp(raw json.RawMessage) int64 {
	return parseTimestampText(parseScalar(raw))
}

func parseTimestampText(text string) int64 {
	if text == "" {
		return 0
	}
	// Some exports emit timestamps as floats.
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return int64(f)
	}
	return 0
}
