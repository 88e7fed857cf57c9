package accuracy

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// pearson returns the Pearson correlation of x and y, or 0 when it is
// undefined (length mismatch, empty input, or a constant series).
func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if floats.Max(x) == floats.Min(x) || floats.Max(y) == floats.Min(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// mean returns the arithmetic mean, or 0 for an empty series.
func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// popStdDev returns the population standard deviation.
func popStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}

// consistency scores how stable the absolute rank errors are: a constant
// error scores 1 and a standard deviation of scale or more scores 0.
func consistency(absDiffs []float64, scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return math.Max(0, 1-popStdDev(absDiffs)/scale)
}
