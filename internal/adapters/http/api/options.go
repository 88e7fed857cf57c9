package api

import "golang.org/x/time/rate"

// DefaultMaxLimit caps list sizes when no limit is configured.
const DefaultMaxLimit = 500

// Option configures the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
	limiter  *rate.Limiter
}

func defaultServerConfig() serverConfig {
	return serverConfig{maxLimit: DefaultMaxLimit}
}

// WithMaxLimit caps the limit query parameter on list endpoints.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithRecomputeRate throttles POST /recompute to perSecond requests with the
// given burst. A non-positive rate disables throttling.
func WithRecomputeRate(perSecond float64, burst int) Option {
	return func(c *serverConfig) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}
