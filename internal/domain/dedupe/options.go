package dedupe

// DefaultMaxSize bounds the number of keys tracked at once.
const DefaultMaxSize = 1024

// Option applies a configuration option to the in-flight tracker.
type Option func(*inFlight)

// WithMaxSize sets how many keys are tracked before the oldest is forgotten.
// A value <= 0 disables the bound.
func WithMaxSize(maxSize int) Option {
	return func(d *inFlight) {
		d.maxSize = maxSize
	}
}
