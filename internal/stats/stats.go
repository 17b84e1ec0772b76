// Package stats holds the numeric helpers shared by the calculators.
// ⭐ SSOT: 평균/표준편차/분위수/상관계수는 여기서만 계산
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TradingDaysPerYear annualizes daily ratios
const TradingDaysPerYear = 252

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation (n-1), 0 for fewer than 2 values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// Sum adds up values
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Sorted returns an ascending copy
func Sorted(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

// Percentile 백분위수 계산 (선형 보간, numpy 기본 방식)
// sorted must be ascending; p is in [0, 100].
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Quantile is Percentile on an unsorted slice with q in [0, 1]
func Quantile(values []float64, q float64) float64 {
	return Percentile(Sorted(values), q*100)
}

// Median of an unsorted slice
func Median(values []float64) float64 {
	return Percentile(Sorted(values), 50)
}

// Pearson returns the Pearson correlation of x and y.
// ok is false when fewer than 2 pairs exist or the result is NaN (zero variance).
func Pearson(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// PctChange returns (v[i]-v[i-1])/v[i-1] for i ≥ 1.
// Pairs with a zero predecessor are dropped.
func PctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (values[i]-prev)/prev)
	}
	return out
}

// MinMaxNormalize scales values into [0, 1].
// A constant signal normalizes to 0.5 everywhere.
func MinMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	span := hi - lo
	for i, v := range values {
		if span == 0 {
			out[i] = 0.5
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}

// TTestOneSample runs a two-sided one-sample t-test of values against mu.
// ok is false with fewer than 2 values or zero variance.
func TTestOneSample(values []float64, mu float64) (tStat, pValue float64, ok bool) {
	n := len(values)
	if n < 2 {
		return 0, 0, false
	}
	sd := StdDev(values)
	if sd == 0 {
		return 0, 0, false
	}

	tStat = (Mean(values) - mu) / (sd / math.Sqrt(float64(n)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	pValue = 2 * dist.Survival(math.Abs(tStat))
	return tStat, pValue, true
}

// LongestRun returns the longest run of consecutive true values
func LongestRun(flags []bool) int {
	longest, current := 0, 0
	for _, f := range flags {
		if f {
			current++
			if current > longest {
				longest = current
			}
			continue
		}
		current = 0
	}
	return longest
}
