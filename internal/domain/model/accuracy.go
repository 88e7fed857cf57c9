package model

// WeekComparison pairs an expert rank with the actual finish for one week.
type WeekComparison struct {
	Week          int
	ProjectedRank float64
	ActualRank    int
	ActualScore   float64
}

// RankDiff returns actual minus projected rank. Negative means the player
// finished better than projected.
func (w WeekComparison) RankDiff() float64 {
	return float64(w.ActualRank) - w.ProjectedRank
}

// AccuracyRecord summarizes how well expert ranks predicted one player's
// weekly positional finishes.
type AccuracyRecord struct {
	Name                  string
	Position              Position
	GamesObserved         int
	Correlation           float64
	MeanAbsoluteRankError float64
	WithinToleranceRate   float64
	AverageSignedRankBias float64
	Consistency           float64
	ReliabilityScore      float64

	// Component grades (0-100) feeding ReliabilityScore.
	MAEGrade         float64
	CorrelationGrade float64
	ConsistencyGrade float64

	Weeks []WeekComparison
}

// PositionAccuracy aggregates accuracy across qualifying players at a position.
type PositionAccuracy struct {
	Position            Position
	MeanCorrelation     float64
	MeanMAE             float64
	MeanWithinTolerance float64
	MeanReliability     float64
	PlayerCount         int
}
