package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"lendscore/internal/domain"
	"lendscore/internal/idhash"
)

// ReadCSV parses a flat CSV ledger export. The first row must be a header;
// column order is free. Recognized columns (case-insensitive):
//
//	wallet, action, timestamp, amount, asset_symbol, asset_price_usd,
//	liquidated_user, caller, liquidator
//
// Unknown columns are ignored. Missing or unparseable cells are treated as
// absent, rows are never rejected.
func ReadCSV(r io.Reader) ([]*domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var txs []*domain.Transaction
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(txs)+2, err)
		}

		tx := &domain.Transaction{
			Wallet:         cell(row, "wallet"),
			Action:         domain.ParseAction(cell(row, "action")),
			Timestamp:      parseTimestampText(cell(row, "timestamp")),
			Amount:         parseDecimalText(cell(row, "amount")),
			AssetSymbol:    cell(row, "asset_symbol"),
			AssetPriceUSD:  parsePriceText(cell(row, "asset_price_usd")),
			LiquidatedUser: cell(row, "liquidated_user"),
			Caller:         cell(row, "caller"),
			Liquidator:     cell(row, "liquidator"),
		}
		tx.TxID = idhash.ComputeTxID(tx)
		txs = append(txs, tx)
	}
	return txs, nil
}
