package accuracy

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Anchor is one control point of the percentile-to-grade curve.
type Anchor struct {
	Percentile float64 `koanf:"percentile"`
	Grade      float64 `koanf:"grade"`
}

// DefaultAnchors compress the bottom half and stretch the top half so that
// mediocre players do not cluster around 50.
var DefaultAnchors = []Anchor{
	{Percentile: 0, Grade: 10},
	{Percentile: 0.25, Grade: 43},
	{Percentile: 0.50, Grade: 75},
	{Percentile: 0.75, Grade: 87},
	{Percentile: 1, Grade: 100},
}

// GradeCurve maps a within-position percentile (1 = best) to a 0-100 grade by
// piecewise-linear interpolation between anchors.
type GradeCurve struct {
	anchors []Anchor
	pl      interp.PiecewiseLinear
}

// NewGradeCurve validates anchors and fits the curve. Anchors need strictly
// increasing percentiles inside [0,1] and non-decreasing grades inside [0,100].
func NewGradeCurve(anchors []Anchor) (*GradeCurve, error) {
	if len(anchors) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 anchors, got %d", ErrInvalidAnchors, len(anchors))
	}
	xs := make([]float64, len(anchors))
	ys := make([]float64, len(anchors))
	for i, a := range anchors {
		if a.Percentile < 0 || a.Percentile > 1 || a.Grade < 0 || a.Grade > 100 {
			return nil, fmt.Errorf("%w: anchor %d out of range (%v -> %v)", ErrInvalidAnchors, i, a.Percentile, a.Grade)
		}
		if i > 0 {
			if a.Percentile <= anchors[i-1].Percentile {
				return nil, fmt.Errorf("%w: percentiles must strictly increase at anchor %d", ErrInvalidAnchors, i)
			}
			if a.Grade < anchors[i-1].Grade {
				return nil, fmt.Errorf("%w: grades must not decrease at anchor %d", ErrInvalidAnchors, i)
			}
		}
		xs[i], ys[i] = a.Percentile, a.Grade
	}

	c := &GradeCurve{anchors: append([]Anchor(nil), anchors...)}
	if err := c.pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnchors, err)
	}
	return c, nil
}

// MustGradeCurve is NewGradeCurve for known-good anchor tables.
func MustGradeCurve(anchors []Anchor) *GradeCurve {
	c, err := NewGradeCurve(anchors)
	if err != nil {
		panic(err)
	}
	return c
}

// Anchors returns a copy of the curve's control points.
func (c *GradeCurve) Anchors() []Anchor {
	return append([]Anchor(nil), c.anchors...)
}

// Grade returns the grade for percentile, clamped to the anchor range.
func (c *GradeCurve) Grade(percentile float64) float64 {
	first, last := c.anchors[0], c.anchors[len(c.anchors)-1]
	switch {
	case math.IsNaN(percentile), percentile <= first.Percentile:
		return first.Grade
	case percentile >= last.Percentile:
		return last.Grade
	}
	return c.pl.Predict(percentile)
}

// percentiles ranks values within their group: 1 - (strictly better)/(n-1).
// Ties share the better percentile and a single value scores 1. NaN sorts
// as the worst value.
func percentiles(values []float64, higherIsBetter bool) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = 1
		return out
	}

	// Flip signs so "better" always means "smaller".
	keys := make([]float64, n)
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			keys[i] = math.Inf(1)
		case higherIsBetter:
			keys[i] = -v
		default:
			keys[i] = v
		}
	}
	sorted := append([]float64(nil), keys...)
	sort.Float64s(sorted)

	for i, k := range keys {
		better := sort.SearchFloat64s(sorted, k) // count strictly smaller
		out[i] = 1 - float64(better)/float64(n-1)
	}
	return out
}
