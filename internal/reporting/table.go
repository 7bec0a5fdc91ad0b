package reporting

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// RenderTable writes the distribution and extremes as terminal tables.
func RenderTable(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Run %s: %d wallets, scores %d-%d (mean %.2f, median %.2f)\n\n",
		r.RunID, r.Summary.Wallets, r.Summary.Min, r.Summary.Max,
		r.Summary.Mean, r.Summary.Median)

	dist := tablewriter.NewWriter(w)
	dist.SetHeader([]string{"Bucket", "Wallets", "Share"})
	for _, b := range r.Distribution {
		dist.Append([]string{
			fmt.Sprintf("%d-%d", b.Lo, b.Hi),
			fmt.Sprintf("%d", b.Count),
			fmt.Sprintf("%.2f%%", b.Share*100),
		})
	}
	dist.Render()

	fmt.Fprintln(w, "\nTop wallets:")
	renderWalletTable(w, r.TopWallets)

	fmt.Fprintln(w, "\nBottom wallets:")
	renderWalletTable(w, r.BottomWallets)
}

func renderWalletTable(w io.Writer, rows []WalletRow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Wallet", "Score", "Raw Score"})
	for _, row := range rows {
		table.Append([]string{
			row.Wallet,
			fmt.Sprintf("%d", row.Score),
			fmt.Sprintf("%.4f", row.RawScore),
		})
	}
	table.Render()
}
