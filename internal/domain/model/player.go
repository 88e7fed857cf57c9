// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// Season week bounds for weekly score tables.
const (
	FirstWeek = 1
	LastWeek  = 18
)

// Position is a fantasy-relevant offensive position.
type Position string

// Supported positions.
const (
	QB Position = "QB"
	RB Position = "RB"
	WR Position = "WR"
	TE Position = "TE"
)

// Positions lists every supported position in display order.
var Positions = []Position{QB, RB, WR, TE}

// Valid reports whether p is one of the supported positions.
func (p Position) Valid() bool {
	switch p {
	case QB, RB, WR, TE:
		return true
	}
	return false
}

// ParsePosition parses labels like "WR", "wr12" or "TE 3". Trailing digits
// (positional rank suffixes) are ignored.
func ParsePosition(s string) (Position, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	p := Position(b.String())
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPosition, s)
	}
	return p, nil
}

// ScoringFormat identifies a point-scoring rule variant.
type ScoringFormat string

// Supported scoring formats.
const (
	PPR      ScoringFormat = "PPR"
	HalfPPR  ScoringFormat = "HALF_PPR"
	Standard ScoringFormat = "STANDARD"
)

// ScoringFormats lists every supported format.
var ScoringFormats = []ScoringFormat{PPR, HalfPPR, Standard}

// ParseScoringFormat accepts canonical names and the common aliases.
func ParseScoringFormat(s string) (ScoringFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ppr", "full", "full_ppr", "full-ppr":
		return PPR, nil
	case "half_ppr", "half-ppr", "half", "halfppr", "0.5":
		return HalfPPR, nil
	case "standard", "std", "non-ppr", "nonppr":
		return Standard, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// PlayerWeekRecord holds one player's weekly points for one format and season.
// A missing week key means the player did not score that week, which is
// different from a recorded zero.
type PlayerWeekRecord struct {
	Name         string
	Position     Position
	WeeklyScores map[int]float64
}

// Games returns the number of recorded weeks.
func (r PlayerWeekRecord) Games() int { return len(r.WeeklyScores) }

// Score returns the recorded points for week.
func (r PlayerWeekRecord) Score(week int) (float64, bool) {
	v, ok := r.WeeklyScores[week]
	return v, ok
}

// Weeks returns the recorded week numbers in ascending order.
func (r PlayerWeekRecord) Weeks() []int {
	weeks := make([]int, 0, len(r.WeeklyScores))
	for w := range r.WeeklyScores {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// Average returns the mean over recorded weeks, or 0 with no games.
func (r PlayerWeekRecord) Average() float64 {
	if len(r.WeeklyScores) == 0 {
		return 0
	}
	var sum float64
	// summed in week order so repeated runs produce identical floats
	for _, w := range r.Weeks() {
		sum += r.WeeklyScores[w]
	}
	return sum / float64(len(r.WeeklyScores))
}

// MaxWeek returns the highest recorded week, or 0.
func (r PlayerWeekRecord) MaxWeek() int {
	maxWeek := 0
	for w := range r.WeeklyScores {
		if w > maxWeek {
			maxWeek = w
		}
	}
	return maxWeek
}

// CurrentWeek returns the highest populated week across all records.
func CurrentWeek(records []PlayerWeekRecord) int {
	current := 0
	for i := range records {
		if w := records[i].MaxWeek(); w > current {
			current = w
		}
	}
	return current
}

// WeeklyProjectionEntry is one player's expert consensus rank for one week.
// PositionalRank is scoped to the position (QB1 is 1, not the overall rank).
type WeeklyProjectionEntry struct {
	Name           string
	Position       Position
	PositionalRank float64
	RankStdDev     float64
}

// Ranked reports whether the entry carries a usable rank.
func (e WeeklyProjectionEntry) Ranked() bool { return e.PositionalRank > 0 }
