// Package projection turns next-week expert ranks into point projections,
// blended with each player's trailing average according to how reliable
// expert ranks have been.
package projection

import (
	"math"
	"sort"

	"github.com/okian/gridcast/internal/domain/accuracy"
	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/names"
	"github.com/okian/gridcast/internal/domain/tier"
)

// Engine parameters.
const (
	DefaultMinOverrideGames = 5
	DefaultStdToPoints      = 0.8

	// FloorRatio bounds how far below the projection the floor may sit.
	FloorRatio = 0.5

	MinReliabilityWeight = 0.3
	MaxReliabilityWeight = 0.9

	// StrongCorrelation is the personal correlation above which a player's
	// expert rank is trusted more than the position's.
	StrongCorrelation = 0.7
)

// Input is everything one projection run needs. Nothing is retained between
// runs.
type Input struct {
	// Season is the current season for the active scoring format.
	Season []model.PlayerWeekRecord
	// Week holds the expert ranks for the evaluation week.
	Week      []model.WeeklyProjectionEntry
	Baselines *baseline.Table
	Accuracy  accuracy.Result
}

// Engine computes projections. It holds configuration only.
type Engine struct {
	minOverrideGames int
	stdToPoints      float64
}

// NewEngine returns an Engine with defaults overridden by opts.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		minOverrideGames: DefaultMinOverrideGames,
		stdToPoints:      DefaultStdToPoints,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns one projection per player with at least one recorded week,
// sorted best first with slate ranks and tiers assigned.
func (e *Engine) Compute(in Input) []model.Projection {
	ranked := make(map[model.Position][]model.WeeklyProjectionEntry, len(model.Positions))
	for _, entry := range in.Week {
		if entry.Ranked() {
			ranked[entry.Position] = append(ranked[entry.Position], entry)
		}
	}
	experts := make(map[model.Position]names.Lookup[model.WeeklyProjectionEntry], len(ranked))
	for pos, entries := range ranked {
		experts[pos] = names.NewIndex(entries, func(x model.WeeklyProjectionEntry) string { return x.Name })
	}

	out := make([]model.Projection, 0, len(in.Season))
	for i := range in.Season {
		rec := &in.Season[i]
		if rec.Games() == 0 {
			continue
		}
		out = append(out, e.project(rec, experts[rec.Position], in))
	}
	finalize(out)
	return out
}

func (e *Engine) project(rec *model.PlayerWeekRecord, experts names.Lookup[model.WeeklyProjectionEntry], in Input) model.Projection {
	avg := rec.Average()
	p := model.Projection{
		Name:            rec.Name,
		Position:        rec.Position,
		TrailingAverage: avg,
		GamesPlayed:     rec.Games(),
		PositionalRank:  model.NoRank,
		Tier:            model.TierBye,
	}

	acc, hasAcc := in.Accuracy.Player(rec.Position, rec.Name)
	if hasAcc {
		p.HasAccuracy = true
		p.Correlation = acc.Correlation
		p.MeanAbsoluteRankError = acc.MeanAbsoluteRankError
		p.WithinToleranceRate = acc.WithinToleranceRate
		p.AverageSignedRankBias = acc.AverageSignedRankBias
		p.ReliabilityScore = acc.ReliabilityScore
	}

	var entry model.WeeklyProjectionEntry
	ok := false
	if experts != nil {
		entry, ok = experts.Get(rec.Name)
	}
	if !ok {
		// No usable expert rank: bye policy, all point fields stay zero.
		return p
	}
	p.HasExpertRank = true
	p.PositionalRank = int(math.Floor(entry.PositionalRank))

	raw := in.Baselines.Points(rec.Position, entry.PositionalRank, avg)
	spread := entry.RankStdDev * e.stdToPoints
	floor := math.Max(raw-spread, raw*FloorRatio)
	ceiling := raw + spread

	weight := PositionWeight(in.Accuracy, rec.Position)
	if hasAcc && acc.GamesObserved >= e.minOverrideGames {
		weight = playerWeight(acc.Correlation, weight)
	}
	proj := weight*raw + (1-weight)*avg
	if hasAcc {
		proj = applyBiasCorrection(proj, acc)
	}

	p.ProjectedPoints = proj
	p.Floor = math.Min(floor, proj)
	p.Ceiling = math.Max(ceiling, proj)
	return p
}

// PositionWeight is the share of the rank-derived estimate in the blend for
// players without a usable personal record. A position with no aggregate or
// a negative mean correlation gets the minimum weight.
func PositionWeight(res accuracy.Result, pos model.Position) float64 {
	agg, ok := res.Position(pos)
	if !ok || agg.MeanCorrelation < 0 {
		return MinReliabilityWeight
	}
	return math.Max(MinReliabilityWeight, math.Min(MaxReliabilityWeight, agg.MeanCorrelation))
}

func playerWeight(correlation, positionWeight float64) float64 {
	switch {
	case correlation > StrongCorrelation:
		return StrongCorrelation + (correlation-StrongCorrelation)*0.3
	case correlation < 0:
		return MinReliabilityWeight
	default:
		return positionWeight
	}
}

// applyBiasCorrection is intentionally inert. Nudging the projection by the
// player's signed rank bias double counts: expert ranks already reflect
// recent over- and under-performance.
func applyBiasCorrection(proj float64, _ model.AccuracyRecord) float64 {
	return proj
}

// finalize sorts projections and assigns slate ranks and tiers in place.
func finalize(ps []model.Projection) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.HasExpertRank != b.HasExpertRank {
			return a.HasExpertRank
		}
		if a.ProjectedPoints != b.ProjectedPoints {
			return a.ProjectedPoints > b.ProjectedPoints
		}
		return a.Name < b.Name
	})

	counts := make(map[model.Position]int, len(model.Positions))
	for i := range ps {
		p := &ps[i]
		if !p.HasExpertRank {
			p.PositionRankWithinSlate = 0
			p.Tier = model.TierBye
			continue
		}
		counts[p.Position]++
		p.PositionRankWithinSlate = counts[p.Position]
		p.Tier = tier.Classify(p.Position, p.PositionRankWithinSlate)
	}
}
