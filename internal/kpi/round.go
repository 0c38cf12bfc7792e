package kpi

import "github.com/shopspring/decimal"

// Round rounds x to places decimals, halves away from zero. NaN and ±Inf are
// returned unchanged.
func Round(x float64, places int32) float64 {
	if !defined(x) {
		return x
	}
	v, _ := decimal.NewFromFloat(x).Round(places).Float64()
	return v
}
