package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/pkg/metrics"
)

// state is the immutable view readers load atomically.
type state struct {
	byKey  map[Key]*Snapshot
	latest map[model.ScoringFormat]Key
	order  []Key // publish order, oldest first
}

// SnapshotStore is a copy-on-write Store. Readers never lock; writers
// serialize on a mutex and swap in a fresh state.
type SnapshotStore struct {
	mu           sync.Mutex
	current      atomic.Pointer[state]
	maxSnapshots int
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{maxSnapshots: DefaultMaxSnapshots}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(&state{
		byKey:  map[Key]*Snapshot{},
		latest: map[model.ScoringFormat]Key{},
	})
	return s
}

// Publish implements Store.
func (s *SnapshotStore) Publish(_ context.Context, snap *Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	snap.seal()
	key := snap.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	next := &state{
		byKey:  make(map[Key]*Snapshot, len(old.byKey)+1),
		latest: make(map[model.ScoringFormat]Key, len(old.latest)+1),
		order:  make([]Key, 0, len(old.order)+1),
	}
	for k, v := range old.byKey {
		next.byKey[k] = v
	}
	for f, k := range old.latest {
		next.latest[f] = k
	}
	for _, k := range old.order {
		if k != key {
			next.order = append(next.order, k)
		}
	}
	next.byKey[key] = snap
	next.latest[snap.Format] = key
	next.order = append(next.order, key)

	// Evict oldest snapshots that are not the latest of their format.
	for len(next.order) > s.maxSnapshots {
		evicted := false
		for i, k := range next.order {
			if next.latest[k.Format] == k {
				continue
			}
			delete(next.byKey, k)
			next.order = append(next.order[:i], next.order[i+1:]...)
			evicted = true
			break
		}
		if !evicted {
			break
		}
	}

	s.current.Store(next)
	metrics.RecordSnapshotPublished(len(next.byKey))
	return nil
}

// Get implements Store.
func (s *SnapshotStore) Get(_ context.Context, format model.ScoringFormat, week int) (*Snapshot, error) {
	snap, ok := s.current.Load().byKey[Key{Format: format, Week: week}]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Latest implements Store.
func (s *SnapshotStore) Latest(_ context.Context, format model.ScoringFormat) (*Snapshot, error) {
	st := s.current.Load()
	key, ok := st.latest[format]
	if !ok {
		return nil, ErrNotFound
	}
	return st.byKey[key], nil
}

// Keys implements Store.
func (s *SnapshotStore) Keys(_ context.Context) []Key {
	st := s.current.Load()
	keys := make([]Key, 0, len(st.byKey))
	for k := range st.byKey {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Count implements Store.
func (s *SnapshotStore) Count(_ context.Context) int {
	return len(s.current.Load().byKey)
}
