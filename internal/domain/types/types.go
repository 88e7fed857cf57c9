// Package types contains the read shapes exposed over the API.
package types

import (
	"math"
	"strconv"
	"time"

	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/lineup"
	"github.com/okian/gridcast/internal/domain/model"
)

// Projection is one player's projection for an evaluation week.
type Projection struct {
	Name            string  `json:"name"`
	Position        string  `json:"position"`
	ProjectedPoints float64 `json:"projected_points"`
	Floor           float64 `json:"floor"`
	Ceiling         float64 `json:"ceiling"`
	TrailingAverage float64 `json:"trailing_average"`
	GamesPlayed     int     `json:"games_played"`
	PositionalRank  int     `json:"positional_rank"`
	SlateRank       int     `json:"slate_rank"`
	Tier            string  `json:"tier"`
	Bye             bool    `json:"bye"`
	Trend           string  `json:"trend"`

	Accuracy *ProjectionAccuracy `json:"accuracy,omitempty"`
}

// ProjectionAccuracy echoes the accuracy stats behind a projection.
type ProjectionAccuracy struct {
	Correlation         float64 `json:"correlation"`
	MeanAbsoluteError   float64 `json:"mean_absolute_error"`
	WithinToleranceRate float64 `json:"within_tolerance_rate"`
	AverageBias         float64 `json:"average_bias"`
	Reliability         float64 `json:"reliability"`
}

// ProjectionList is a filtered view over one snapshot.
type ProjectionList struct {
	RunID       string       `json:"run_id"`
	Format      string       `json:"format"`
	Season      int          `json:"season"`
	Week        int          `json:"week"`
	GeneratedAt time.Time    `json:"generated_at"`
	Count       int          `json:"count"`
	Projections []Projection `json:"projections"`
}

// WeekComparison is one paired week on an accuracy record.
type WeekComparison struct {
	Week          int     `json:"week"`
	ProjectedRank float64 `json:"projected_rank"`
	ActualRank    int     `json:"actual_rank"`
	ActualScore   float64 `json:"actual_score"`
	RankDiff      float64 `json:"rank_diff"`
}

// AccuracyRecord is one player's historical accuracy.
type AccuracyRecord struct {
	Name                string           `json:"name"`
	Position            string           `json:"position"`
	GamesObserved       int              `json:"games_observed"`
	Correlation         float64          `json:"correlation"`
	MeanAbsoluteError   float64          `json:"mean_absolute_error"`
	WithinToleranceRate float64          `json:"within_tolerance_rate"`
	AverageBias         float64          `json:"average_bias"`
	Consistency         float64          `json:"consistency"`
	Reliability         float64          `json:"reliability"`
	MAEGrade            float64          `json:"mae_grade"`
	CorrelationGrade    float64          `json:"correlation_grade"`
	ConsistencyGrade    float64          `json:"consistency_grade"`
	Weeks               []WeekComparison `json:"weeks,omitempty"`
}

// PositionAccuracy aggregates accuracy for one position.
type PositionAccuracy struct {
	Position            string  `json:"position"`
	Players             int     `json:"players"`
	MeanCorrelation     float64 `json:"mean_correlation"`
	MeanAbsoluteError   float64 `json:"mean_absolute_error"`
	MeanWithinTolerance float64 `json:"mean_within_tolerance"`
	MeanReliability     float64 `json:"mean_reliability"`
	ReliabilityWeight   float64 `json:"reliability_weight"`
}

// AccuracyReport is the accuracy view for one snapshot.
type AccuracyReport struct {
	RunID     string             `json:"run_id"`
	Format    string             `json:"format"`
	Week      int                `json:"week"`
	Positions []PositionAccuracy `json:"positions"`
	Players   []AccuracyRecord   `json:"players"`
}

// BaselineReport lists expected points by positional rank.
type BaselineReport struct {
	Format    string               `json:"format"`
	Year      int                  `json:"year"`
	Positions map[string][]float64 `json:"positions"`
}

// HistoryRow is one positional rank across past seasons. ByYear is keyed by
// season year.
type HistoryRow struct {
	Rank   int                `json:"rank"`
	ByYear map[string]float64 `json:"by_year"`
	Mean   float64            `json:"mean"`
}

// HistoryReport compares per-rank averages across past seasons.
type HistoryReport struct {
	Format    string                  `json:"format"`
	Years     []int                   `json:"years"`
	Depth     int                     `json:"depth"`
	Positions map[string][]HistoryRow `json:"positions"`
}

// WaiverCandidate is a projection with a pickup priority.
type WaiverCandidate struct {
	Projection
	Priority string `json:"priority"`
}

// WaiverList is the best unrostered players for one snapshot.
type WaiverList struct {
	RunID      string            `json:"run_id"`
	Format     string            `json:"format"`
	Week       int               `json:"week"`
	MinPoints  float64           `json:"min_points"`
	Count      int               `json:"count"`
	Candidates []WaiverCandidate `json:"candidates"`
}

// LineupRequest asks for the best starters from a roster. A nil Slots map
// selects one QB, two RB, two WR, one TE and one FLEX.
type LineupRequest struct {
	Format  string         `json:"format"`
	Week    int            `json:"week"`
	Players []string       `json:"players"`
	Slots   map[string]int `json:"slots,omitempty"`
}

// LineupStarter is one filled slot.
type LineupStarter struct {
	Slot string `json:"slot"`
	Projection
}

// Lineup is the optimized lineup for a roster.
type Lineup struct {
	RunID     string          `json:"run_id"`
	Format    string          `json:"format"`
	Week      int             `json:"week"`
	Starters  []LineupStarter `json:"starters"`
	Bench     []Projection    `json:"bench"`
	Open      map[string]int  `json:"open_slots,omitempty"`
	Unmatched []string        `json:"unmatched,omitempty"`
	Projected float64         `json:"projected_points"`
	Floor     float64         `json:"floor"`
	Ceiling   float64         `json:"ceiling"`
}

// Run summarizes an archived snapshot.
type Run struct {
	ID              string             `json:"id"`
	Format          string             `json:"format"`
	Season          int                `json:"season"`
	Week            int                `json:"week"`
	CreatedAt       time.Time          `json:"created_at"`
	DurationMs      int64              `json:"duration_ms"`
	BaselineYear    int                `json:"baseline_year"`
	ProjectionCount int                `json:"projection_count"`
	Positions       []PositionAccuracy `json:"positions,omitempty"`
	Projections     []Projection       `json:"projections,omitempty"`
}

// RecomputeStatus reports what happened to a recompute request.
type RecomputeStatus string

// Recompute outcomes.
const (
	RecomputeAccepted  RecomputeStatus = "accepted"
	RecomputeDuplicate RecomputeStatus = "duplicate"
)

// RecomputeResult acknowledges a recompute request.
type RecomputeResult struct {
	ID     string          `json:"id,omitempty"`
	Format string          `json:"format"`
	Week   int             `json:"week"`
	Status RecomputeStatus `json:"status"`
}

// SnapshotInfo identifies a stored snapshot.
type SnapshotInfo struct {
	Format string `json:"format"`
	Week   int    `json:"week"`
}

// Stats reports service state.
type Stats struct {
	Started       bool           `json:"started"`
	Season        int            `json:"season"`
	CurrentWeek   int            `json:"current_week"`
	NextWeek      int            `json:"next_week"`
	DefaultFormat string         `json:"default_format"`
	Workers       int            `json:"workers"`
	QueueLength   int            `json:"queue_length"`
	QueueCapacity int            `json:"queue_capacity"`
	InFlight      int64          `json:"in_flight"`
	Snapshots     []SnapshotInfo `json:"snapshots"`
	Rows          map[string]int `json:"rows"`
	ArchiveRuns   int            `json:"archive_runs"`
	Archive       bool           `json:"archive_enabled"`
}

// FromProjection converts an engine projection.
func FromProjection(p model.Projection) Projection {
	out := Projection{
		Name:            p.Name,
		Position:        string(p.Position),
		ProjectedPoints: round(p.ProjectedPoints, 2),
		Floor:           round(p.Floor, 2),
		Ceiling:         round(p.Ceiling, 2),
		TrailingAverage: round(p.TrailingAverage, 2),
		GamesPlayed:     p.GamesPlayed,
		PositionalRank:  p.PositionalRank,
		SlateRank:       p.PositionRankWithinSlate,
		Tier:            string(p.Tier),
		Bye:             p.IsBye(),
		Trend:           string(p.Trend()),
	}
	if p.HasAccuracy {
		out.Accuracy = &ProjectionAccuracy{
			Correlation:         round(p.Correlation, 3),
			MeanAbsoluteError:   round(p.MeanAbsoluteRankError, 2),
			WithinToleranceRate: round(p.WithinToleranceRate, 3),
			AverageBias:         round(p.AverageSignedRankBias, 2),
			Reliability:         round(p.ReliabilityScore, 1),
		}
	}
	return out
}

// FromProjections converts a slice of engine projections.
func FromProjections(ps []model.Projection) []Projection {
	out := make([]Projection, len(ps))
	for i, p := range ps {
		out[i] = FromProjection(p)
	}
	return out
}

// FromAccuracyRecord converts an accuracy record. Week details are included
// only when withWeeks is set.
func FromAccuracyRecord(r model.AccuracyRecord, withWeeks bool) AccuracyRecord {
	out := AccuracyRecord{
		Name:                r.Name,
		Position:            string(r.Position),
		GamesObserved:       r.GamesObserved,
		Correlation:         round(r.Correlation, 3),
		MeanAbsoluteError:   round(r.MeanAbsoluteRankError, 2),
		WithinToleranceRate: round(r.WithinToleranceRate, 3),
		AverageBias:         round(r.AverageSignedRankBias, 2),
		Consistency:         round(r.Consistency, 3),
		Reliability:         round(r.ReliabilityScore, 1),
		MAEGrade:            round(r.MAEGrade, 1),
		CorrelationGrade:    round(r.CorrelationGrade, 1),
		ConsistencyGrade:    round(r.ConsistencyGrade, 1),
	}
	if withWeeks {
		out.Weeks = make([]WeekComparison, len(r.Weeks))
		for i, w := range r.Weeks {
			out.Weeks[i] = WeekComparison{
				Week:          w.Week,
				ProjectedRank: w.ProjectedRank,
				ActualRank:    w.ActualRank,
				ActualScore:   round(w.ActualScore, 2),
				RankDiff:      w.RankDiff(),
			}
		}
	}
	return out
}

// FromPositionAccuracy converts a position aggregate together with the
// reliability weight the projection engine applies to it.
func FromPositionAccuracy(a model.PositionAccuracy, weight float64) PositionAccuracy {
	return PositionAccuracy{
		Position:            string(a.Position),
		Players:             a.PlayerCount,
		MeanCorrelation:     round(a.MeanCorrelation, 3),
		MeanAbsoluteError:   round(a.MeanMAE, 2),
		MeanWithinTolerance: round(a.MeanWithinTolerance, 3),
		MeanReliability:     round(a.MeanReliability, 1),
		ReliabilityWeight:   round(weight, 3),
	}
}

// FromHistory converts a multi-season baseline history.
func FromHistory(format string, h baseline.History) HistoryReport {
	out := HistoryReport{
		Format:    format,
		Years:     h.Years,
		Depth:     h.Depth,
		Positions: make(map[string][]HistoryRow, len(h.Positions)),
	}
	for pos, rows := range h.Positions {
		conv := make([]HistoryRow, len(rows))
		for i, r := range rows {
			byYear := make(map[string]float64, len(r.ByYear))
			for y, v := range r.ByYear {
				byYear[strconv.Itoa(y)] = round(v, 2)
			}
			conv[i] = HistoryRow{Rank: r.Rank, ByYear: byYear, Mean: round(r.Mean, 2)}
		}
		out.Positions[string(pos)] = conv
	}
	return out
}

// Waiver priorities by list position.
const (
	PriorityHot   = "hot"
	PriorityStar  = "star"
	PriorityWatch = "watch"
)

// WaiverPriority buckets a zero-based position in a waiver list: the top five
// are hot and the next ten are starred.
func WaiverPriority(index int) string {
	switch {
	case index < 5:
		return PriorityHot
	case index < 15:
		return PriorityStar
	}
	return PriorityWatch
}

// FromLineup converts an optimized lineup.
func FromLineup(l lineup.Lineup) Lineup {
	out := Lineup{
		Starters:  make([]LineupStarter, len(l.Starters)),
		Bench:     FromProjections(l.Bench),
		Projected: round(l.Projected, 2),
		Floor:     round(l.Floor, 2),
		Ceiling:   round(l.Ceiling, 2),
	}
	for i, s := range l.Starters {
		out.Starters[i] = LineupStarter{Slot: string(s.Slot), Projection: FromProjection(s.Projection)}
	}
	if len(l.Open) > 0 {
		out.Open = make(map[string]int, len(l.Open))
		for slot, n := range l.Open {
			out.Open[string(slot)] = n
		}
	}
	return out
}

func round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
