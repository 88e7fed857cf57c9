// Package baseline converts ordinal positional ranks into point values using
// the previous season's per-player averages.
package baseline

import (
	"math"
	"sort"

	"github.com/okian/gridcast/internal/domain/model"
)

// Default baseline parameters.
const (
	DefaultMaxDepth     = 100
	DefaultDecayPerRank = 0.3
	DefaultMinPoints    = 3.0
)

// Option applies a configuration option to a Table build.
type Option func(*Table)

// WithMaxDepth caps how many ranks each position keeps.
func WithMaxDepth(depth int) Option {
	return func(t *Table) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// WithDecayPerRank sets the points lost per rank beyond the observed table.
func WithDecayPerRank(decay float64) Option {
	return func(t *Table) {
		if decay >= 0 {
			t.decayPerRank = decay
		}
	}
}

// WithMinPoints sets the extrapolation floor.
func WithMinPoints(points float64) Option {
	return func(t *Table) {
		if points >= 0 {
			t.minPoints = points
		}
	}
}

// Table holds, per position, historical averages ordered best to worst.
// Index i approximates the average of the player ranked i+1.
type Table struct {
	byPosition   map[model.Position][]float64
	maxDepth     int
	decayPerRank float64
	minPoints    float64
}

// Build derives the baseline table from one season of weekly records for the
// active scoring format. Players without recorded weeks or with a
// non-positive average are ignored.
func Build(records []model.PlayerWeekRecord, opts ...Option) *Table {
	t := &Table{
		byPosition:   make(map[model.Position][]float64, len(model.Positions)),
		maxDepth:     DefaultMaxDepth,
		decayPerRank: DefaultDecayPerRank,
		minPoints:    DefaultMinPoints,
	}
	for _, opt := range opts {
		opt(t)
	}

	for i := range records {
		r := &records[i]
		if !r.Position.Valid() || r.Games() == 0 {
			continue
		}
		avg := r.Average()
		if avg <= 0 {
			continue
		}
		t.byPosition[r.Position] = append(t.byPosition[r.Position], avg)
	}

	for pos, values := range t.byPosition {
		sort.Sort(sort.Reverse(sort.Float64Slice(values)))
		if len(values) > t.maxDepth {
			values = values[:t.maxDepth]
		}
		t.byPosition[pos] = values
	}
	return t
}

// Values returns a copy of the baseline for pos.
func (t *Table) Values(pos model.Position) []float64 {
	if t == nil {
		return nil
	}
	values := t.byPosition[pos]
	out := make([]float64, len(values))
	copy(out, values)
	return out
}

// Len returns the number of ranks observed for pos.
func (t *Table) Len(pos model.Position) int {
	if t == nil {
		return 0
	}
	return len(t.byPosition[pos])
}

// Points converts a positional rank into expected points. Ranks inside the
// table read the table directly; deeper ranks decay linearly from the last
// observed value and never drop below the minimum points. fallback stands in
// for the last value when the position has no baseline at all. Ranks inside
// the table never gain points as rank grows; past the table the minimum wins,
// so a tail below it is lifted back up to it.
func (t *Table) Points(pos model.Position, rank, fallback float64) float64 {
	var values []float64
	decay, minPoints := DefaultDecayPerRank, DefaultMinPoints
	if t != nil {
		values = t.byPosition[pos]
		decay, minPoints = t.decayPerRank, t.minPoints
	}

	index := int(math.Floor(rank)) - 1
	if index < 0 {
		index = 0
	}
	if index < len(values) {
		return values[index]
	}

	last := fallback
	if len(values) > 0 {
		last = values[len(values)-1]
	}
	proj := last - float64(index-len(values))*decay
	return math.Max(proj, minPoints)
}
