package archive

import (
	"time"

	"github.com/okian/gridcast/pkg/logger"
)

// DefaultBusyTimeout is how long writers wait on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the archive logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Archive) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithBusyTimeout sets the SQLite busy timeout.
func WithBusyTimeout(d time.Duration) Option {
	return func(a *Archive) {
		if d > 0 {
			a.busyTimeout = d
		}
	}
}
