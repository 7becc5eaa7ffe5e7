package crustscore

import (
	"math"

	"github.com/shopspring/decimal"
)

// fixed rounds the exact binary value of x half away from zero at the given
// number of decimals. 1.005 is stored just below 1.005 and so rounds to 1.00,
// while 0.25 rounds to 0.3. x must be finite.
func fixed(x float64, digits int) decimal.Decimal {
	return decimal.NewFromFloatWithExponent(x, -int32(digits))
}

// toFixed formats x with the given number of decimals.
func toFixed(x float64, digits int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}
	return fixed(x, digits).StringFixed(int32(digits))
}

// roundFixed rounds x to the given number of decimals the way toFixed
// formats it, returning the nearest float64.
func roundFixed(x float64, digits int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, _ := fixed(x, digits).Float64()
	if v == 0 {
		// drop negative zero
		return 0
	}
	return v
}

// round2 rounds x to two decimals with ties toward positive infinity, on the
// float64 product x*100 rather than the exact value of x.
func round2(x float64) float64 {
	v := x * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return x
	}
	f := math.Floor(v)
	if v-f >= 0.5 {
		f++
	}
	f /= 100
	if f == 0 {
		return 0
	}
	return f
}
