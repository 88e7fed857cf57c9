package repository

// DefaultMaxSnapshots bounds how many (format, week) snapshots are retained.
const DefaultMaxSnapshots = 64

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithMaxSnapshots sets how many snapshots are retained before the oldest
// non-latest one is evicted.
func WithMaxSnapshots(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.maxSnapshots = n
		}
	}
}
