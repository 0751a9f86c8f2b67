// Package charts turns raw workload iterations into chart-ready data.
package charts

import (
	"math"
	"sort"
)

// Percentile returns the p-th quantile (0..1) of values using linear
// interpolation between the closest ranks
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(idx-float64(lo))
}

// Mean calculates the arithmetic mean
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MinMax returns the smallest and largest value
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Round rounds to the given number of decimal places
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// summary is the duration breakdown shared by stats tables
type summary struct {
	min, median, p90, p95, max, avg float64
}

func summarize(values []float64) summary {
	min, max := MinMax(values)
	return summary{
		min:    Round(min, 3),
		median: Round(Percentile(values, 0.5), 3),
		p90:    Round(Percentile(values, 0.9), 3),
		p95:    Round(Percentile(values, 0.95), 3),
		max:    Round(max, 3),
		avg:    Round(Mean(values), 3),
	}
}
