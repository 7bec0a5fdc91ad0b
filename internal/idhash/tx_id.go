// Package idhash derives deterministic identifiers for ledger records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"lendscore/internal/domain"
)

// ComputeTxID computes a deterministic transaction identity using SHA256.
// Formula: SHA256(wallet|action|timestamp|amount|symbol)
// Returns hex-encoded hash (64 characters).
//
// Ledgers exported from indexers frequently repeat rows across overlapping
// extracts; append-only stores key on this hash to dedupe them.
func ComputeTxID(tx *domain.Transaction) string {
	amount := ""
	if tx.Amount != nil {
		amount = tx.Amount.String()
	}

	data := fmt.Sprintf("%s|%s|%d|%s|%s",
		tx.Wallet,
		tx.Action,
		tx.Timestamp,
		amount,
		tx.AssetSymbol,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
