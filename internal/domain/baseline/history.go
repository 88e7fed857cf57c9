package baseline

import (
	"sort"

	"github.com/okian/gridcast/internal/domain/model"
	"gonum.org/v1/gonum/stat"
)

// DefaultHistoryDepth is how many ranks per position a history keeps.
const DefaultHistoryDepth = 24

// HistoryRow is one positional rank across past seasons.
type HistoryRow struct {
	Rank   int
	ByYear map[int]float64
	Mean   float64
}

// History compares per-rank averages across several past seasons.
type History struct {
	Years     []int
	Depth     int
	Positions map[model.Position][]HistoryRow
}

// BuildHistory derives per-rank averages for each season and their mean over
// the seasons that reach each rank. A season too shallow for a rank is left
// out of that rank's mean. depth <= 0 selects DefaultHistoryDepth.
func BuildHistory(seasons map[int][]model.PlayerWeekRecord, depth int) History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	h := History{
		Years:     make([]int, 0, len(seasons)),
		Depth:     depth,
		Positions: make(map[model.Position][]HistoryRow, len(model.Positions)),
	}
	tables := make(map[int]*Table, len(seasons))
	for year, recs := range seasons {
		h.Years = append(h.Years, year)
		tables[year] = Build(recs, WithMaxDepth(depth))
	}
	sort.Ints(h.Years)

	for _, pos := range model.Positions {
		var rows []HistoryRow
		for rank := 1; rank <= depth; rank++ {
			row := HistoryRow{Rank: rank, ByYear: map[int]float64{}}
			vals := make([]float64, 0, len(h.Years))
			for _, year := range h.Years {
				values := tables[year].byPosition[pos]
				if rank > len(values) {
					continue
				}
				row.ByYear[year] = values[rank-1]
				vals = append(vals, values[rank-1])
			}
			if len(vals) == 0 {
				break
			}
			row.Mean = stat.Mean(vals, nil)
			rows = append(rows, row)
		}
		h.Positions[pos] = rows
	}
	return h
}
