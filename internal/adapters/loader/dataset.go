package loader

import (
	"sort"

	"github.com/okian/gridcast/internal/domain/model"
)

// Dataset is everything loaded from a data directory.
type Dataset struct {
	// Year is the current season.
	Year int
	// Historical holds complete past seasons by format then year.
	Historical map[model.ScoringFormat]map[int][]model.PlayerWeekRecord
	// Current holds the season in progress by format.
	Current map[model.ScoringFormat][]model.PlayerWeekRecord
	// Projections holds expert ranks by week.
	Projections map[int][]model.WeeklyProjectionEntry
	// CurrentWeek is the highest week with a recorded score.
	CurrentWeek int
}

// NewDataset returns an empty dataset for year.
func NewDataset(year int) *Dataset {
	return &Dataset{
		Year:        year,
		Historical:  make(map[model.ScoringFormat]map[int][]model.PlayerWeekRecord),
		Current:     make(map[model.ScoringFormat][]model.PlayerWeekRecord),
		Projections: make(map[int][]model.WeeklyProjectionEntry),
	}
}

// Season returns the current season for format. Points files are often only
// published for PPR, so other formats fall back to it.
func (d *Dataset) Season(format model.ScoringFormat) ([]model.PlayerWeekRecord, bool) {
	if recs, ok := d.Current[format]; ok {
		return recs, true
	}
	recs, ok := d.Current[model.PPR]
	return recs, ok
}

// LatestHistorical returns the most recent complete season for format.
func (d *Dataset) LatestHistorical(format model.ScoringFormat) (int, []model.PlayerWeekRecord, bool) {
	years := d.HistoricalYears(format)
	if len(years) == 0 {
		return 0, nil, false
	}
	y := years[len(years)-1]
	return y, d.Historical[format][y], true
}

// HistoricalYears lists the past seasons loaded for format, oldest first.
func (d *Dataset) HistoricalYears(format model.ScoringFormat) []int {
	years := make([]int, 0, len(d.Historical[format]))
	for y := range d.Historical[format] {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// ProjectionWeeks lists the weeks with expert ranks in ascending order.
func (d *Dataset) ProjectionWeeks() []int {
	weeks := make([]int, 0, len(d.Projections))
	for w := range d.Projections {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks
}

// NextWeek is the evaluation week after the latest played one.
func (d *Dataset) NextWeek() int {
	if d.CurrentWeek >= model.LastWeek {
		return model.LastWeek
	}
	return d.CurrentWeek + 1
}

// Counts summarizes row counts by table for metrics and stats.
func (d *Dataset) Counts() map[string]int {
	counts := map[string]int{"historical": 0, "current": 0, "weekly": 0}
	for _, years := range d.Historical {
		for _, recs := range years {
			counts["historical"] += len(recs)
		}
	}
	for _, recs := range d.Current {
		counts["current"] += len(recs)
	}
	for _, entries := range d.Projections {
		counts["weekly"] += len(entries)
	}
	return counts
}
