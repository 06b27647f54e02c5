package calc

import (
	"math"
	"strconv"
)

// Format renders v for display: shortest round-trip decimal, with exponent
// notation for very large or very small magnitudes. Negative zero prints as 0.
func Format(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
