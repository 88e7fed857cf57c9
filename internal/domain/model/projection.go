package model

// NoRank marks a projection without an expert rank for the evaluation week.
const NoRank = 999

// Tier is a coarse valuation bucket derived from positional rank.
type Tier string

// Tier values.
const (
	TierElite  Tier = "Elite"
	TierHigh   Tier = "High"
	TierMid    Tier = "Mid"
	TierStream Tier = "Stream"
	TierBye    Tier = "Bye"
)

// Projection is the engine output for one player and one evaluation week.
type Projection struct {
	Name     string
	Position Position

	ProjectedPoints float64
	Floor           float64
	Ceiling         float64

	TrailingAverage float64
	GamesPlayed     int

	HasExpertRank           bool
	PositionalRank          int // expert rank, NoRank when absent
	PositionRankWithinSlate int // 0 when excluded from ranking
	Tier                    Tier

	// Echo of the player's accuracy record, zero when HasAccuracy is false.
	HasAccuracy           bool
	Correlation           float64
	MeanAbsoluteRankError float64
	WithinToleranceRate   float64
	AverageSignedRankBias float64
	ReliabilityScore      float64
}

// IsBye reports whether the projection took the no-expert-rank path.
func (p Projection) IsBye() bool { return !p.HasExpertRank }

// Trend reads the direction of a player's signed rank bias.
type Trend string

// Trend values.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendSteady Trend = "steady"
)

// TrendThreshold is the bias magnitude in ranks that counts as a trend.
const TrendThreshold = 2.0

// Trend is TrendSteady for players without an accuracy record.
func (p Projection) Trend() Trend {
	switch {
	case !p.HasAccuracy:
		return TrendSteady
	case p.AverageSignedRankBias > TrendThreshold:
		return TrendUp
	case p.AverageSignedRankBias < -TrendThreshold:
		return TrendDown
	}
	return TrendSteady
}
