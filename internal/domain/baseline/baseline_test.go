package baseline_test

import (
	"fmt"
	"testing"

	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func record(name string, pos model.Position, scores ...float64) model.PlayerWeekRecord {
	w := make(map[int]float64, len(scores))
	for i, s := range scores {
		w[i+1] = s
	}
	return model.PlayerWeekRecord{Name: name, Position: pos, WeeklyScores: w}
}

func TestBuild(t *testing.T) {
	Convey("Given one historical season", t, func() {
		records := []model.PlayerWeekRecord{
			record("QB A", model.QB, 20, 30),
			record("QB B", model.QB, 10, 10, 10),
			record("QB C", model.QB, 15),
			record("QB Zero", model.QB, 0, 0),
			{Name: "QB None", Position: model.QB},
			record("RB A", model.RB, 12),
		}
		table := baseline.Build(records)

		Convey("Then each position should be sorted descending", func() {
			So(table.Values(model.QB), ShouldResemble, []float64{25, 15, 10})
			So(table.Values(model.RB), ShouldResemble, []float64{12})
		})

		Convey("And zero-game or non-positive players should be ignored", func() {
			So(table.Len(model.QB), ShouldEqual, 3)
		})

		Convey("And positions without data should be empty", func() {
			So(table.Len(model.TE), ShouldEqual, 0)
		})
	})

	Convey("Given more players than the depth", t, func() {
		var records []model.PlayerWeekRecord
		for i := 0; i < 150; i++ {
			records = append(records, record(fmt.Sprintf("WR %d", i), model.WR, float64(i+1)))
		}

		Convey("Then the default table should keep the top 100", func() {
			table := baseline.Build(records)
			values := table.Values(model.WR)
			So(len(values), ShouldEqual, 100)
			So(values[0], ShouldEqual, 150)
			So(values[99], ShouldEqual, 51)
		})

		Convey("And a custom depth should be honoured", func() {
			table := baseline.Build(records, baseline.WithMaxDepth(10))
			So(table.Len(model.WR), ShouldEqual, 10)
		})
	})
}

func TestPoints(t *testing.T) {
	Convey("Given a baseline of [30 25 20]", t, func() {
		table := baseline.Build([]model.PlayerWeekRecord{
			record("A", model.WR, 30),
			record("B", model.WR, 25),
			record("C", model.WR, 20),
		})

		Convey("When converting ranks inside the table", func() {
			So(table.Points(model.WR, 1, 0), ShouldEqual, 30)
			So(table.Points(model.WR, 3, 0), ShouldEqual, 20)
		})

		Convey("When converting rank 5 beyond the table", func() {
			Convey("Then it should extrapolate 20 - (4-3)*0.3", func() {
				So(table.Points(model.WR, 5, 0), ShouldAlmostEqual, 19.7, 1e-9)
			})
		})

		Convey("When converting a very deep rank", func() {
			Convey("Then it should clamp at 3 points", func() {
				So(table.Points(model.WR, 90, 0), ShouldEqual, 3)
			})
		})

		Convey("When the rank is fractional", func() {
			So(table.Points(model.WR, 2.9, 0), ShouldEqual, 25)
		})
	})

	Convey("Given a baseline whose tail stays above the floor", t, func() {
		table := baseline.Build([]model.PlayerWeekRecord{
			record("A", model.TE, 14),
			record("B", model.TE, 9),
			record("C", model.TE, 4),
			record("D", model.TE, 3.5),
		})

		Convey("Then converted points should never increase with rank", func() {
			prev := table.Points(model.TE, 1, 0)
			for r := 2; r <= 150; r++ {
				cur := table.Points(model.TE, float64(r), 0)
				So(cur, ShouldBeLessThanOrEqualTo, prev)
				prev = cur
			}
		})
	})

	Convey("Given a baseline whose tail is below 3 points", t, func() {
		table := baseline.Build([]model.PlayerWeekRecord{
			record("A", model.TE, 30),
			record("B", model.TE, 25),
			record("C", model.TE, 2),
		})

		Convey("Then ranks inside the table read it directly", func() {
			So(table.Points(model.TE, 3, 10), ShouldEqual, 2)
		})

		Convey("Then ranks past the table are floored at 3", func() {
			So(table.Points(model.TE, 5, 10), ShouldEqual, 3)
			So(table.Points(model.TE, 60, 10), ShouldEqual, 3)
		})
	})

	Convey("Given a position without a baseline", t, func() {
		table := baseline.Build(nil)

		Convey("Then the fallback should stand in for the last value", func() {
			So(table.Points(model.QB, 1, 12), ShouldEqual, 12)
			So(table.Points(model.QB, 11, 12), ShouldAlmostEqual, 9, 1e-9)
		})

		Convey("Then a fallback below 3 points is floored at 3", func() {
			So(table.Points(model.QB, 5, 2), ShouldEqual, 3)
		})
	})

	Convey("Given custom decay and floor", t, func() {
		table := baseline.Build([]model.PlayerWeekRecord{record("A", model.RB, 10)},
			baseline.WithDecayPerRank(1), baseline.WithMinPoints(5))
		So(table.Points(model.RB, 4, 0), ShouldEqual, 8)
		So(table.Points(model.RB, 40, 0), ShouldEqual, 5)
	})

	Convey("Given a custom floor above the last observed value", t, func() {
		table := baseline.Build([]model.PlayerWeekRecord{record("A", model.RB, 4)},
			baseline.WithMinPoints(6))
		So(table.Points(model.RB, 1, 0), ShouldEqual, 4)
		So(table.Points(model.RB, 2, 0), ShouldEqual, 6)
	})
}
