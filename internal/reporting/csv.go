package reporting

import (
	"fmt"
	"strings"

	"lendscore/internal/domain"
)

// RenderCSV renders scored wallets as CSV string.
func RenderCSV(scores []domain.ScoreRecord) string {
	var sb strings.Builder

	// Header
	sb.WriteString("run_id,wallet,score,raw_score\n")

	// Rows
	for _, sc := range scores {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%.6f\n",
			sc.RunID,
			sc.Wallet,
			sc.Score,
			sc.RawScore,
		))
	}

	return sb.String()
}
