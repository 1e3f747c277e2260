// Package stats provides the small set of robust statistics the beat
// detectors share, built on gonum.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Max returns the largest value in the slice, or 0 for empty input
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data)
}

// Median returns the middle value of the data, averaging the two central
// values for even-length input. The input is not modified.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0.0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}

// MAD returns the median absolute deviation, a dispersion estimate
// resistant to outliers
func MAD(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	med := Median(data)
	dev := make([]float64, len(data))
	for i, v := range data {
		d := v - med
		if d < 0 {
			d = -d
		}
		dev[i] = d
	}

	return Median(dev)
}

// Clamp01 limits v to the unit interval
func Clamp01(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// Variance calculates the sample variance of a slice using gonum
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}
