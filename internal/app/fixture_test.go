package service

import (
	"github.com/okian/gridcast/internal/adapters/loader"
	"github.com/okian/gridcast/internal/domain/model"
)

func weekly(scores ...float64) map[int]float64 {
	out := make(map[int]float64, len(scores))
	for i, s := range scores {
		out[i+1] = s
	}
	return out
}

func rank(name string, pos model.Position, r float64) model.WeeklyProjectionEntry {
	return model.WeeklyProjectionEntry{Name: name, Position: pos, PositionalRank: r, RankStdDev: 4}
}

// FixtureDataset is a small 2025 season four weeks in, with expert ranks for
// weeks 1 through 5. Delta Receiver and Foxtrot End have no week 5 rank.
func FixtureDataset() *loader.Dataset {
	ds := loader.NewDataset(2025)
	ds.CurrentWeek = 4

	ds.Historical[model.PPR] = map[int][]model.PlayerWeekRecord{
		2023: {
			{Name: "Old Timer", Position: model.WR, WeeklyScores: weekly(30, 30)},
		},
		2024: {
			{Name: "Prior WR1", Position: model.WR, WeeklyScores: weekly(20, 20)},
			{Name: "Prior WR2", Position: model.WR, WeeklyScores: weekly(16, 16)},
			{Name: "Prior WR3", Position: model.WR, WeeklyScores: weekly(12, 12)},
			{Name: "Prior WR4", Position: model.WR, WeeklyScores: weekly(8, 8)},
			{Name: "Prior QB1", Position: model.QB, WeeklyScores: weekly(24, 24)},
			{Name: "Prior QB2", Position: model.QB, WeeklyScores: weekly(20, 20)},
			{Name: "Prior TE1", Position: model.TE, WeeklyScores: weekly(10, 10)},
		},
	}

	ds.Current[model.PPR] = []model.PlayerWeekRecord{
		{Name: "Alpha Receiver", Position: model.WR, WeeklyScores: weekly(25, 18, 22, 20)},
		{Name: "Bravo Receiver", Position: model.WR, WeeklyScores: weekly(20, 24, 12, 7)},
		{Name: "Charlie Receiver", Position: model.WR, WeeklyScores: weekly(15, 9, 19, 21)},
		{Name: "Delta Receiver", Position: model.WR, WeeklyScores: weekly(10, 14, 8, 11)},
		{Name: "Echo Passer", Position: model.QB, WeeklyScores: weekly(18, 22, 20, 25)},
		{Name: "Foxtrot End", Position: model.TE, WeeklyScores: weekly(6, 9)},
	}

	// Expert ranks match the actual finishes for weeks 1..4.
	finishes := [][4]string{
		{"Alpha Receiver", "Bravo Receiver", "Charlie Receiver", "Delta Receiver"},
		{"Bravo Receiver", "Alpha Receiver", "Delta Receiver", "Charlie Receiver"},
		{"Alpha Receiver", "Charlie Receiver", "Bravo Receiver", "Delta Receiver"},
		{"Charlie Receiver", "Alpha Receiver", "Delta Receiver", "Bravo Receiver"},
	}
	for i, order := range finishes {
		week := i + 1
		for r, name := range order {
			ds.Projections[week] = append(ds.Projections[week], rank(name, model.WR, float64(r+1)))
		}
		ds.Projections[week] = append(ds.Projections[week], rank("Echo Passer", model.QB, 1))
	}
	ds.Projections[5] = []model.WeeklyProjectionEntry{
		rank("Alpha Receiver", model.WR, 1),
		rank("Bravo Receiver", model.WR, 2),
		rank("Charlie Receiver", model.WR, 3),
		rank("Echo Passer", model.QB, 1),
	}
	return ds
}
