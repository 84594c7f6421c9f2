package frame

import (
	"math"
	"sort"
)

// Series helpers shared by the pipeline stages. All of them treat NaN as the
// absence value and propagate it rather than inventing numbers.

// Shift moves values by n positions: n > 0 lags (leading NaNs), n < 0 leads
// (trailing NaNs).
func Shift(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		j := i - n
		if j < 0 || j >= len(values) {
			out[i] = math.NaN()
		} else {
			out[i] = values[j]
		}
	}
	return out
}

// PctChange is the one-step fractional change. Undefined when the previous
// value is missing or zero.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		prev := values[i-1]
		if math.IsNaN(prev) || math.IsNaN(values[i]) || prev == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[i]/prev - 1
	}
	return out
}

// Ratio computes a/b - 1 element-wise, NaN where b is zero or either side is
// missing.
func Ratio(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || b[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = a[i]/b[i] - 1
	}
	return out
}

// Div computes a/b element-wise, NaN where b is zero or either side is
// missing.
func Div(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || b[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

// RollingMean over a trailing window. NaN until the window is full or when the
// window contains a missing value.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if window <= 0 || i < window-1 {
			continue
		}
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// RollingStd is the trailing-window standard deviation (population form,
// matching ta.MeanStd).
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if window <= 1 || i < window-1 {
			continue
		}
		var sum float64
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(window))
	}
	return out
}

// RollingCorr is the trailing-window Pearson correlation of two series. NaN
// until the window is full, when the window contains a missing value, or when
// either side has zero variance.
func RollingCorr(a, b []float64, window int) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = math.NaN()
		if window <= 1 || i < window-1 {
			continue
		}
		var sumA, sumB float64
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(a[j]) || math.IsNaN(b[j]) {
				ok = false
				break
			}
			sumA += a[j]
			sumB += b[j]
		}
		if !ok {
			continue
		}
		meanA := sumA / float64(window)
		meanB := sumB / float64(window)
		var cov, varA, varB float64
		for j := i - window + 1; j <= i; j++ {
			da := a[j] - meanA
			db := b[j] - meanB
			cov += da * db
			varA += da * da
			varB += db * db
		}
		if varA == 0 || varB == 0 {
			continue
		}
		out[i] = cov / math.Sqrt(varA*varB)
	}
	return out
}

// FillForward replaces each NaN with the last preceding non-NaN value.
// Returns the number of cells filled.
func FillForward(values []float64) int {
	filled := 0
	last := math.NaN()
	for i, v := range values {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				values[i] = last
				filled++
			}
			continue
		}
		last = v
	}
	return filled
}

// FillBackward replaces each NaN with the next following non-NaN value.
func FillBackward(values []float64) int {
	filled := 0
	next := math.NaN()
	for i := len(values) - 1; i >= 0; i-- {
		if math.IsNaN(values[i]) {
			if !math.IsNaN(next) {
				values[i] = next
				filled++
			}
			continue
		}
		next = values[i]
	}
	return filled
}

// Median of the non-NaN values; NaN when none exist.
func Median(values []float64) float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == 0 {
		return math.NaN()
	}
	sort.Float64s(present)
	mid := len(present) / 2
	if len(present)%2 == 1 {
		return present[mid]
	}
	return (present[mid-1] + present[mid]) / 2
}
