package kpi

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Normalize rescales values linearly into [newMin, newMax]: the minimum maps to
// newMin and the maximum to newMax. When all values are equal every element
// becomes the midpoint (newMin+newMax)/2. NaN elements are ignored when finding
// the range and stay NaN. The input is not modified.
func Normalize(values []float64, newMin, newMax float64) []float64 {
	out, _ := normalize(values, newMin, newMax)
	return out
}

// normalize is Normalize that also reports a degenerate (zero-width) range
func normalize(values []float64, newMin, newMax float64) ([]float64, bool) {
	out := make([]float64, len(values))
	lo, hi, ok := MinMax(values)
	if !ok {
		copy(out, values)
		return out, false
	}

	if hi == lo {
		mid := (newMin + newMax) / 2
		for i, v := range values {
			if math.IsNaN(v) {
				out[i] = v
				continue
			}
			out[i] = mid
		}
		return out, true
	}

	span := hi - lo
	for i, v := range values {
		switch v {
		case lo:
			out[i] = newMin
		case hi:
			out[i] = newMax
		default:
			out[i] = (v-lo)/span*(newMax-newMin) + newMin
		}
	}
	return out, false
}

// MinMax returns the smallest and largest non-NaN values. ok is false when
// there are none.
func MinMax(values []float64) (lo, hi float64, ok bool) {
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, ok
}

// defined reports whether x is a usable finite number
func defined(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// mean is the arithmetic mean of the non-NaN values, NaN when there are none
func mean(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	return stat.Mean(present, nil)
}
