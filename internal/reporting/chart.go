package reporting

import (
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
)

// RenderHistogram renders the score distribution as a PNG bar chart.
func RenderHistogram(w io.Writer, r *Report) error {
	if r.Summary.Wallets == 0 {
		return fmt.Errorf("no wallets scored, nothing to chart")
	}

	var bars []chart.Value
	for _, b := range r.Distribution {
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%d-%d", b.Lo, b.Hi),
			Value: float64(b.Count),
		})
	}

	barChart := chart.BarChart{
		Title: fmt.Sprintf("Score Distribution (run %s)", r.RunID),
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  800,
		Height: 400,
		Bars:   bars,
	}
	barChart.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return fmt.Sprintf("%.0f", vf)
		}
		return ""
	}

	return barChart.Render(chart.PNG, w)
}
