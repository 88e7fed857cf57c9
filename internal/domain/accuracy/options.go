package accuracy

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithMinWeeks sets how many paired weeks a player needs for a record.
func WithMinWeeks(weeks int) Option {
	return func(e *Estimator) {
		if weeks > 0 {
			e.minWeeks = weeks
		}
	}
}

// WithTolerance sets the rank distance counted as "within tolerance".
func WithTolerance(ranks float64) Option {
	return func(e *Estimator) {
		if ranks >= 0 {
			e.tolerance = ranks
		}
	}
}

// WithConsistencyScale sets the error standard deviation that zeroes consistency.
func WithConsistencyScale(scale float64) Option {
	return func(e *Estimator) {
		if scale > 0 {
			e.consistencyScale = scale
		}
	}
}

// WithFullCreditGames sets the sample size that earns the full sample grade.
func WithFullCreditGames(games int) Option {
	return func(e *Estimator) {
		if games > 0 {
			e.fullCreditGames = games
		}
	}
}

// WithGradeCurve replaces the percentile-to-grade curve.
func WithGradeCurve(curve *GradeCurve) Option {
	return func(e *Estimator) {
		if curve != nil {
			e.curve = curve
		}
	}
}

// WithWeights replaces the composite reliability weights.
func WithWeights(w Weights) Option {
	return func(e *Estimator) {
		if w.valid() {
			e.weights = w
		}
	}
}

// WithGradeAnchors fits a new grade curve from anchors. Invalid tables are
// ignored and the current curve is kept; validate with NewGradeCurve first
// when the caller needs the error.
func WithGradeAnchors(anchors []Anchor) Option {
	return func(e *Estimator) {
		if c, err := NewGradeCurve(anchors); err == nil {
			e.curve = c
		}
	}
}
