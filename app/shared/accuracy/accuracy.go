// Package accuracy holds the hit-count to accuracy conversions shared by the
// submission parser, the replay validator, and the stats aggregator.
//
// The canonical internal representation is a fraction in [0, 1]. Percent and
// the fixed-point "droid unit" form (percent x 1000) exist only for external
// formats and are converted at the boundary.
package accuracy

import "math"

// Fraction computes hit accuracy from a standard hit tuple.
// A play with no judged objects counts as fully accurate.
func Fraction(h300, h100, h50, h0 int) float64 {
	total := h300 + h100 + h50 + h0
	if total <= 0 {
		return 1
	}
	earned := float64(h300*300 + h100*100 + h50*50)
	return earned / (float64(total) * 300)
}

// ToPercent converts a fraction in [0, 1] to a percent in [0, 100].
func ToPercent(fraction float64) float64 {
	return fraction * 100
}

// FromPercent converts a percent in [0, 100] to a fraction in [0, 1].
func FromPercent(percent float64) float64 {
	return percent / 100
}

// PercentToDroidUnits converts a percent to the fixed-point wire form used by
// the legacy client response format (percent x 1000, rounded half away from
// zero).
func PercentToDroidUnits(percent float64) int {
	return int(math.Round(percent * 1000))
}

// DroidUnitsToPercent is the inverse of PercentToDroidUnits up to one unit of
// rounding error.
func DroidUnitsToPercent(units int) float64 {
	return float64(units) / 1000
}
