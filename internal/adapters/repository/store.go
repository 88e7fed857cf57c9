// Package repository holds published projection snapshots in memory.
package repository

import (
	"context"
	"sort"
	"time"

	"github.com/okian/gridcast/internal/domain/accuracy"
	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/names"
)

// Key identifies a snapshot.
type Key struct {
	Format model.ScoringFormat
	Week   int
}

// Snapshot is one immutable recompute result. Once published it must not be
// modified.
type Snapshot struct {
	RunID     string
	Format    model.ScoringFormat
	Season    int
	Week      int
	CreatedAt time.Time
	Duration  time.Duration

	// BaselineYear is the past season the baselines were built from.
	BaselineYear int
	Baselines    *baseline.Table

	// Projections are sorted best first.
	Projections []model.Projection
	Accuracy    accuracy.Result

	byName map[string]int
}

// Key returns the snapshot's key.
func (s *Snapshot) Key() Key { return Key{Format: s.Format, Week: s.Week} }

func (s *Snapshot) seal() {
	s.byName = make(map[string]int, len(s.Projections))
	for i, p := range s.Projections {
		key := names.Normalize(p.Name)
		if _, dup := s.byName[key]; !dup {
			s.byName[key] = i
		}
	}
}

// Player finds a projection by display name.
func (s *Snapshot) Player(name string) (model.Projection, bool) {
	key := names.Normalize(name)
	if s.byName != nil {
		i, ok := s.byName[key]
		if !ok {
			return model.Projection{}, false
		}
		return s.Projections[i], true
	}
	for _, p := range s.Projections {
		if names.Normalize(p.Name) == key {
			return p, true
		}
	}
	return model.Projection{}, false
}

// Filter returns up to limit projections at pos (all positions when pos is
// empty) in snapshot order. A limit of 0 means no limit.
func (s *Snapshot) Filter(pos model.Position, limit int) ([]model.Projection, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	out := make([]model.Projection, 0, len(s.Projections))
	for _, p := range s.Projections {
		if pos != "" && p.Position != pos {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Available returns up to limit projections at pos scoring at least
// minPoints whose normalized names are not in rostered, in snapshot order. A
// limit of 0 means no limit.
func (s *Snapshot) Available(pos model.Position, minPoints float64, rostered []string, limit int) ([]model.Projection, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	skip := make(map[string]struct{}, len(rostered))
	for _, n := range rostered {
		skip[names.Normalize(n)] = struct{}{}
	}
	out := make([]model.Projection, 0)
	for _, p := range s.Projections {
		if pos != "" && p.Position != pos {
			continue
		}
		if p.ProjectedPoints < minPoints {
			continue
		}
		if _, ok := skip[names.Normalize(p.Name)]; ok {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// TierCounts counts projections per tier.
func (s *Snapshot) TierCounts() map[model.Tier]int {
	counts := make(map[model.Tier]int)
	for _, p := range s.Projections {
		counts[p.Tier]++
	}
	return counts
}

// Store provides access to published snapshots.
type Store interface {
	// Publish makes snap visible to readers, replacing any snapshot with the
	// same key.
	Publish(ctx context.Context, snap *Snapshot) error
	// Get returns the snapshot for format and week, or ErrNotFound.
	Get(ctx context.Context, format model.ScoringFormat, week int) (*Snapshot, error)
	// Latest returns the most recently published snapshot for format.
	Latest(ctx context.Context, format model.ScoringFormat) (*Snapshot, error)
	// Keys lists stored keys ordered by format then week.
	Keys(ctx context.Context) []Key
	// Count returns the number of stored snapshots.
	Count(ctx context.Context) int
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Format != keys[j].Format {
			return keys[i].Format < keys[j].Format
		}
		return keys[i].Week < keys[j].Week
	})
}
