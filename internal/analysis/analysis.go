// Package analysis provides thermal-statistics reductions over sampled
// observable traces.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanStd returns the mean and standard deviation of a sample trace.
func MeanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	mean = stat.Mean(xs, nil)
	if len(xs) > 1 {
		std = stat.StdDev(xs, nil)
	}
	return mean, std
}

// Autocorrelation returns the normalized autocorrelation function of xs up
// to maxLag. Lag zero is always 1 for a non-constant trace.
func Autocorrelation(xs []float64, maxLag int) []float64 {
	n := len(xs)
	if maxLag >= n {
		maxLag = n - 1
	}
	mean := stat.Mean(xs, nil)
	centered := make([]float64, n)
	copy(centered, xs)
	floats.AddConst(-mean, centered)

	var0 := floats.Dot(centered, centered)
	acf := make([]float64, maxLag+1)
	if var0 == 0 {
		return acf
	}
	for lag := 0; lag <= maxLag; lag++ {
		acf[lag] = floats.Dot(centered[:n-lag], centered[lag:]) / var0
	}
	return acf
}

// IntegratedTime estimates the integrated autocorrelation time from an
// autocorrelation function, truncating at the first negative value. A
// result near 1 means consecutive samples are already decorrelated.
func IntegratedTime(acf []float64) float64 {
	tau := 1.0
	for lag := 1; lag < len(acf); lag++ {
		if acf[lag] <= 0 {
			break
		}
		tau += 2 * acf[lag]
	}
	return tau
}

// Histogram bins xs uniformly between min and max, returning normalized bin
// weights that sum to 1.
func Histogram(xs []float64, bins int) (edges, weights []float64) {
	if len(xs) == 0 || bins <= 0 {
		return nil, nil
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	// The final divider is exclusive; nudge it past the largest value.
	span := hi - lo
	if span == 0 {
		span = 1
	}
	hi += span * 1e-9
	edges = make([]float64, bins+1)
	floats.Span(edges, lo, hi)
	counts := stat.Histogram(nil, edges, sorted, nil)
	total := floats.Sum(counts)
	if total > 0 {
		floats.Scale(1/total, counts)
	}
	return edges, counts
}
