package projection

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMinOverrideGames sets how many observed games a player's own accuracy
// record needs before it overrides the position weight.
func WithMinOverrideGames(games int) Option {
	return func(e *Engine) {
		if games > 0 {
			e.minOverrideGames = games
		}
	}
}

// WithStdToPoints sets the factor converting rank standard deviation into
// points for the floor and ceiling band.
func WithStdToPoints(factor float64) Option {
	return func(e *Engine) {
		if factor >= 0 {
			e.stdToPoints = factor
		}
	}
}
