package scoring

import "math"

// MaxScore is the upper bound of the final score range.
const MaxScore = 1000

// DegenerateScore is assigned to every wallet when the population carries no
// spread (all raw scores equal, including a single-wallet run); min/max
// rescaling is undefined there.
const DegenerateScore = 500

// Bounds returns the min and max of a raw-score population.
// ok is false for an empty population.
func Bounds(raw []float64) (minRaw, maxRaw float64, ok bool) {
	if len(raw) == 0 {
		return 0, 0, false
	}
	minRaw, maxRaw = raw[0], raw[0]
	for _, r := range raw[1:] {
		if r < minRaw {
			minRaw = r
		}
		if r > maxRaw {
			maxRaw = r
		}
	}
	return minRaw, maxRaw, true
}

// RescaleOne maps one raw score into [0, MaxScore] given the population
// bounds. Rounding at the boundaries is absorbed by a final clamp.
func RescaleOne(raw, minRaw, maxRaw float64) int {
	if maxRaw == minRaw {
		return DegenerateScore
	}
	scaled := int(math.Round((raw - minRaw) / (maxRaw - minRaw) * MaxScore))
	if scaled < 0 {
		return 0
	}
	if scaled > MaxScore {
		return MaxScore
	}
	return scaled
}

// Rescale maps the full raw-score population into [0, MaxScore] integers.
// Population-relative by design: the same raw score lands differently in
// runs with different distributions.
func Rescale(raw []float64) []int {
	minRaw, maxRaw, ok := Bounds(raw)
	if !ok {
		return nil
	}

	out := make([]int, len(raw))
	for i, r := range raw {
		out[i] = RescaleOne(r, minRaw, maxRaw)
	}
	return out
}
