package analytics

import "math"

// round rounds half-up to the given number of decimals. Non-finite values
// collapse to 0 and negative zero is normalised. Values too large to scale
// have no fractional part left and are returned as is.
func round(x float64, places int) float64 {
	if !finite(x) {
		return 0
	}
	p := math.Pow(10, float64(places))
	if !finite(math.Abs(x) * p) {
		return x
	}
	v := math.Floor(x*p+0.5) / p
	if !finite(v) || v == 0 {
		return 0
	}
	return v
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Round2 rounds a money amount to cents.
func Round2(x float64) float64 { return round(x, 2) }
