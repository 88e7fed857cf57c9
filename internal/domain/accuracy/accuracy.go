// Package accuracy measures how well weekly expert ranks predicted each
// player's actual positional finish and turns that into a 0-100
// reliability score.
package accuracy

import (
	"math"
	"sort"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/names"
)

// Defaults for the Estimator.
const (
	DefaultMinWeeks         = 3
	DefaultTolerance        = 3.0
	DefaultConsistencyScale = 15.0
	DefaultFullCreditGames  = 8
)

// Weights combine the component grades into the reliability score.
type Weights struct {
	MAE         float64
	Correlation float64
	Consistency float64
	Sample      float64
}

// DefaultWeights favour rank error, then correlation.
var DefaultWeights = Weights{MAE: 0.40, Correlation: 0.30, Consistency: 0.20, Sample: 0.10}

func (w Weights) valid() bool {
	if w.MAE < 0 || w.Correlation < 0 || w.Consistency < 0 || w.Sample < 0 {
		return false
	}
	return math.Abs(w.MAE+w.Correlation+w.Consistency+w.Sample-1) < 1e-9
}

// Estimator computes accuracy records from a season of actual scores and the
// weekly expert ranks issued for it. It holds configuration only and is safe
// for concurrent use.
type Estimator struct {
	minWeeks         int
	tolerance        float64
	consistencyScale float64
	fullCreditGames  int
	curve            *GradeCurve
	weights          Weights
}

// NewEstimator returns an Estimator with defaults overridden by opts.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		minWeeks:         DefaultMinWeeks,
		tolerance:        DefaultTolerance,
		consistencyScale: DefaultConsistencyScale,
		fullCreditGames:  DefaultFullCreditGames,
		curve:            MustGradeCurve(DefaultAnchors),
		weights:          DefaultWeights,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result holds per-player records keyed by Key and per-position aggregates.
// A player without a record did not have enough paired weeks.
type Result struct {
	Players   map[string]model.AccuracyRecord
	Positions map[model.Position]model.PositionAccuracy
}

func newResult() Result {
	return Result{
		Players:   make(map[string]model.AccuracyRecord),
		Positions: make(map[model.Position]model.PositionAccuracy),
	}
}

// Key is the record key for a player. Namesakes at different positions are
// different players.
func Key(pos model.Position, name string) string {
	return string(pos) + "/" + names.Normalize(name)
}

// Player looks a record up by position and display name.
func (r Result) Player(pos model.Position, name string) (model.AccuracyRecord, bool) {
	rec, ok := r.Players[Key(pos, name)]
	return rec, ok
}

// Position returns the aggregate for pos.
func (r Result) Position(pos model.Position) (model.PositionAccuracy, bool) {
	agg, ok := r.Positions[pos]
	return agg, ok
}

// Records returns records for the given positions (all when none given),
// ordered by reliability descending then name.
func (r Result) Records(positions ...model.Position) []model.AccuracyRecord {
	want := make(map[model.Position]bool, len(positions))
	for _, p := range positions {
		want[p] = true
	}
	out := make([]model.AccuracyRecord, 0, len(r.Players))
	for _, rec := range r.Players {
		if len(want) > 0 && !want[rec.Position] {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReliabilityScore != out[j].ReliabilityScore {
			return out[i].ReliabilityScore > out[j].ReliabilityScore
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Merge combines per-position results. Later parts win on key collisions.
func Merge(parts ...Result) Result {
	out := newResult()
	for _, p := range parts {
		for k, v := range p.Players {
			out.Players[k] = v
		}
		for k, v := range p.Positions {
			out.Positions[k] = v
		}
	}
	return out
}

// Compute evaluates every supported position.
func (e *Estimator) Compute(season []model.PlayerWeekRecord, projections map[int][]model.WeeklyProjectionEntry) Result {
	parts := make([]Result, 0, len(model.Positions))
	for _, pos := range model.Positions {
		parts = append(parts, e.ComputePosition(season, projections, pos))
	}
	return Merge(parts...)
}

// ComputePosition evaluates one position. Positions are independent, so
// callers may run them concurrently and Merge the results.
func (e *Estimator) ComputePosition(season []model.PlayerWeekRecord, projections map[int][]model.WeeklyProjectionEntry, pos model.Position) Result {
	res := newResult()

	players := make([]model.PlayerWeekRecord, 0)
	for _, rec := range season {
		if rec.Position == pos {
			players = append(players, rec)
		}
	}
	if len(players) == 0 {
		return res
	}

	weeks := make([]int, 0, len(projections))
	for w := range projections {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	experts := make(map[int]*names.Index[model.WeeklyProjectionEntry], len(weeks))
	actual := make(map[int]map[string]int, len(weeks))
	for _, w := range weeks {
		ranked := make([]model.WeeklyProjectionEntry, 0, len(projections[w]))
		for _, entry := range projections[w] {
			if entry.Ranked() && entry.Position == pos {
				ranked = append(ranked, entry)
			}
		}
		experts[w] = names.NewIndex(ranked, func(x model.WeeklyProjectionEntry) string { return x.Name })
		actual[w] = actualRanks(players, w)
	}

	records := make([]model.AccuracyRecord, 0, len(players))
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		key := names.Normalize(p.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if p.Games() < e.minWeeks {
			continue
		}

		var pairs []model.WeekComparison
		for _, w := range weeks {
			score, ok := p.Score(w)
			if !ok {
				continue
			}
			entry, ok := experts[w].GetKey(key)
			if !ok {
				continue
			}
			rank, ok := actual[w][key]
			if !ok {
				continue
			}
			pairs = append(pairs, model.WeekComparison{
				Week:          w,
				ProjectedRank: entry.PositionalRank,
				ActualRank:    rank,
				ActualScore:   score,
			})
		}
		if len(pairs) < e.minWeeks {
			continue
		}
		records = append(records, e.measure(p, pairs))
	}
	if len(records) == 0 {
		return res
	}

	e.grade(records)

	agg := model.PositionAccuracy{Position: pos, PlayerCount: len(records)}
	corr := make([]float64, len(records))
	mae := make([]float64, len(records))
	within := make([]float64, len(records))
	rel := make([]float64, len(records))
	for i, rec := range records {
		corr[i] = rec.Correlation
		mae[i] = rec.MeanAbsoluteRankError
		within[i] = rec.WithinToleranceRate
		rel[i] = rec.ReliabilityScore
		res.Players[Key(pos, rec.Name)] = rec
	}
	agg.MeanCorrelation = mean(corr)
	agg.MeanMAE = mean(mae)
	agg.MeanWithinTolerance = mean(within)
	agg.MeanReliability = mean(rel)
	res.Positions[pos] = agg
	return res
}

// actualRanks ranks players who scored more than zero in week, best first.
func actualRanks(players []model.PlayerWeekRecord, week int) map[string]int {
	type scored struct {
		key   string
		score float64
	}
	list := make([]scored, 0, len(players))
	for _, p := range players {
		if s, ok := p.Score(week); ok && s > 0 {
			list = append(list, scored{key: names.Normalize(p.Name), score: s})
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].key < list[j].key
	})
	ranks := make(map[string]int, len(list))
	for i, s := range list {
		if _, dup := ranks[s.key]; !dup {
			ranks[s.key] = i + 1
		}
	}
	return ranks
}

// measure computes the raw per-player statistics.
func (e *Estimator) measure(p model.PlayerWeekRecord, pairs []model.WeekComparison) model.AccuracyRecord {
	n := len(pairs)
	projected := make([]float64, n)
	actual := make([]float64, n)
	signed := make([]float64, n)
	abs := make([]float64, n)
	within := 0
	for i, c := range pairs {
		projected[i] = c.ProjectedRank
		actual[i] = float64(c.ActualRank)
		signed[i] = c.RankDiff()
		abs[i] = math.Abs(signed[i])
		if abs[i] <= e.tolerance {
			within++
		}
	}

	return model.AccuracyRecord{
		Name:                  p.Name,
		Position:              p.Position,
		GamesObserved:         n,
		Correlation:           pearson(projected, actual),
		MeanAbsoluteRankError: mean(abs),
		WithinToleranceRate:   float64(within) / float64(n),
		AverageSignedRankBias: mean(signed),
		Consistency:           consistency(abs, e.consistencyScale),
		Weeks:                 pairs,
	}
}

// grade fills the component grades and reliability score in place. All
// records must share one position.
func (e *Estimator) grade(records []model.AccuracyRecord) {
	n := len(records)
	mae := make([]float64, n)
	corr := make([]float64, n)
	cons := make([]float64, n)
	for i, r := range records {
		mae[i] = r.MeanAbsoluteRankError
		corr[i] = r.Correlation
		cons[i] = r.Consistency
	}
	maeP := percentiles(mae, false)
	corrP := percentiles(corr, true)
	consP := percentiles(cons, true)

	for i := range records {
		r := &records[i]
		r.MAEGrade = e.curve.Grade(maeP[i])
		r.CorrelationGrade = e.curve.Grade(corrP[i])
		r.ConsistencyGrade = e.curve.Grade(consP[i])
		sample := math.Min(100, float64(r.GamesObserved)/float64(e.fullCreditGames)*100)

		score := e.weights.MAE*r.MAEGrade +
			e.weights.Correlation*r.CorrelationGrade +
			e.weights.Consistency*r.ConsistencyGrade +
			e.weights.Sample*sample
		r.ReliabilityScore = math.Max(0, math.Min(100, score))
	}
}
