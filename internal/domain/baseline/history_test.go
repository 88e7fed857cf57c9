package baseline_test

import (
	"fmt"
	"testing"

	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildHistory(t *testing.T) {
	Convey("Given two past seasons of different depth", t, func() {
		seasons := map[int][]model.PlayerWeekRecord{
			2023: {
				record("QB A", model.QB, 20, 22),
				record("QB B", model.QB, 16),
				record("QB C", model.QB, 12),
				record("RB A", model.RB, 14),
			},
			2022: {
				record("QB A", model.QB, 24),
				record("QB B", model.QB, 18),
			},
		}
		h := baseline.BuildHistory(seasons, 0)

		Convey("Then the years are listed oldest first with the default depth", func() {
			So(h.Years, ShouldResemble, []int{2022, 2023})
			So(h.Depth, ShouldEqual, baseline.DefaultHistoryDepth)
		})

		Convey("Then each rank carries per-season values and their mean", func() {
			qb := h.Positions[model.QB]
			So(qb, ShouldHaveLength, 3)
			So(qb[0].Rank, ShouldEqual, 1)
			So(qb[0].ByYear, ShouldResemble, map[int]float64{2022: 24, 2023: 21})
			So(qb[0].Mean, ShouldAlmostEqual, 22.5, 1e-9)
			So(qb[1].Mean, ShouldAlmostEqual, 17, 1e-9)
		})

		Convey("Then a rank only one season reaches averages that season alone", func() {
			third := h.Positions[model.QB][2]
			So(third.ByYear, ShouldResemble, map[int]float64{2023: 12})
			So(third.Mean, ShouldEqual, 12)
		})

		Convey("Then a position with no players has no rows", func() {
			So(h.Positions[model.TE], ShouldBeEmpty)
			So(h.Positions[model.RB], ShouldHaveLength, 1)
		})
	})

	Convey("Given a season deeper than the requested depth", t, func() {
		var recs []model.PlayerWeekRecord
		for i := 0; i < 30; i++ {
			recs = append(recs, record(fmt.Sprintf("WR %02d", i), model.WR, float64(40-i)))
		}
		h := baseline.BuildHistory(map[int][]model.PlayerWeekRecord{2024: recs}, 10)

		Convey("Then rows stop at the depth", func() {
			So(h.Positions[model.WR], ShouldHaveLength, 10)
			So(h.Positions[model.WR][9].Mean, ShouldEqual, 31)
		})
	})

	Convey("Given no seasons", t, func() {
		h := baseline.BuildHistory(nil, 5)

		Convey("Then the history is empty", func() {
			So(h.Years, ShouldBeEmpty)
			for _, pos := range model.Positions {
				So(h.Positions[pos], ShouldBeEmpty)
			}
		})
	})
}
