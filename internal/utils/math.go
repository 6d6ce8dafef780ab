package utils

import "math"

// RoundTo rounds value to the given number of decimal places.
// Half-away-from-zero, matching how weights and money amounts are reported.
func RoundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// Clamp limits value to the inclusive range [lo, hi]
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Percent returns part/total*100, or 0 when total is not positive.
// Avoids NaN/Inf leaking into API payloads from empty datasets.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}
