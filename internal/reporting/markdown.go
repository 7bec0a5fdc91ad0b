package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Score Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wallets Scored | %d |\n", r.Summary.Wallets))
	sb.WriteString(fmt.Sprintf("| Started At | %s |\n", time.Unix(r.StartedAt, 0).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Finished At | %s |\n", time.Unix(r.FinishedAt, 0).UTC().Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Raw Score Min | %.4f |\n", r.MinRawScore))
	sb.WriteString(fmt.Sprintf("| Raw Score Max | %.4f |\n", r.MaxRawScore))
	sb.WriteString(fmt.Sprintf("| Score Mean | %.2f |\n", r.Summary.Mean))
	sb.WriteString(fmt.Sprintf("| Score Median | %.2f |\n", r.Summary.Median))
	sb.WriteString(fmt.Sprintf("| Score Min | %d |\n", r.Summary.Min))
	sb.WriteString(fmt.Sprintf("| Score Max | %d |\n", r.Summary.Max))
	sb.WriteString("\n")

	// Distribution
	sb.WriteString("## Score Distribution\n\n")
	sb.WriteString("| Bucket | Wallets | Share |\n")
	sb.WriteString("|--------|---------|-------|\n")
	for _, b := range r.Distribution {
		sb.WriteString(fmt.Sprintf("| %d-%d | %d | %.2f%% |\n", b.Lo, b.Hi, b.Count, b.Share*100))
	}
	sb.WriteString("\n")

	// Extremes
	sb.WriteString("## Top Wallets\n\n")
	writeWalletTable(&sb, r.TopWallets)

	sb.WriteString("## Bottom Wallets\n\n")
	writeWalletTable(&sb, r.BottomWallets)

	return sb.String()
}

func writeWalletTable(sb *strings.Builder, rows []WalletRow) {
	if len(rows) == 0 {
		sb.WriteString("No wallets scored.\n\n")
		return
	}
	sb.WriteString("| Wallet | Score | Raw Score |\n")
	sb.WriteString("|--------|-------|----------|\n")
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.4f |\n", row.Wallet, row.Score, row.RawScore))
	}
	sb.WriteString("\n")
}
