package lineup_test

import (
	"errors"
	"testing"

	"github.com/okian/gridcast/internal/domain/lineup"
	"github.com/okian/gridcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func proj(name string, pos model.Position, points float64) model.Projection {
	return model.Projection{
		Name:            name,
		Position:        pos,
		ProjectedPoints: points,
		Floor:           points - 4,
		Ceiling:         points + 5,
		HasExpertRank:   true,
	}
}

func names(starters []lineup.Starter, slot lineup.Slot) []string {
	var out []string
	for _, s := range starters {
		if s.Slot == slot {
			out = append(out, s.Projection.Name)
		}
	}
	return out
}

func TestOptimize(t *testing.T) {
	Convey("Given a full roster and the default slots", t, func() {
		roster := []model.Projection{
			proj("QB One", model.QB, 22),
			proj("QB Two", model.QB, 18),
			proj("RB One", model.RB, 15),
			proj("RB Two", model.RB, 12),
			proj("RB Three", model.RB, 11),
			proj("WR One", model.WR, 16),
			proj("WR Two", model.WR, 13),
			proj("WR Three", model.WR, 9),
			proj("TE One", model.TE, 10),
			proj("TE Two", model.TE, 11.5),
		}
		l, err := lineup.Optimize(roster, lineup.DefaultConfig())
		So(err, ShouldBeNil)

		Convey("Then each positional slot takes the best at its position", func() {
			So(names(l.Starters, lineup.SlotQB), ShouldResemble, []string{"QB One"})
			So(names(l.Starters, lineup.SlotRB), ShouldResemble, []string{"RB One", "RB Two"})
			So(names(l.Starters, lineup.SlotWR), ShouldResemble, []string{"WR One", "WR Two"})
			So(names(l.Starters, lineup.SlotTE), ShouldResemble, []string{"TE Two"})
		})

		Convey("Then flex takes the best leftover RB, WR or TE", func() {
			So(names(l.Starters, lineup.SlotFlex), ShouldResemble, []string{"RB Three"})
		})

		Convey("Then a backup QB is never a flex", func() {
			So(l.Bench[0].Name, ShouldEqual, "QB Two")
			So(l.Bench, ShouldHaveLength, 3)
		})

		Convey("Then the totals sum the starters", func() {
			So(l.Projected, ShouldAlmostEqual, 22+15+12+16+13+11.5+11, 1e-9)
			So(l.Floor, ShouldAlmostEqual, l.Projected-7*4, 1e-9)
			So(l.Ceiling, ShouldAlmostEqual, l.Projected+7*5, 1e-9)
			So(l.Open, ShouldBeEmpty)
		})
	})

	Convey("Given a roster too thin for the slots", t, func() {
		roster := []model.Projection{proj("RB One", model.RB, 15), proj("WR One", model.WR, 8)}
		l, err := lineup.Optimize(roster, lineup.Config{lineup.SlotRB: 2, lineup.SlotWR: 1, lineup.SlotFlex: 1})
		So(err, ShouldBeNil)

		Convey("Then unfilled slots are reported open", func() {
			So(l.Starters, ShouldHaveLength, 2)
			So(l.Open, ShouldResemble, map[lineup.Slot]int{lineup.SlotRB: 1, lineup.SlotFlex: 1})
			So(l.Bench, ShouldBeEmpty)
		})
	})

	Convey("Given a bye player with no projection", t, func() {
		bye := model.Projection{Name: "WR Bye", Position: model.WR}
		roster := []model.Projection{bye, proj("WR Low", model.WR, 3)}
		l, err := lineup.Optimize(roster, lineup.Config{lineup.SlotWR: 1})
		So(err, ShouldBeNil)

		Convey("Then the projected player starts ahead of the bye", func() {
			So(names(l.Starters, lineup.SlotWR), ShouldResemble, []string{"WR Low"})
			So(l.Bench[0].Name, ShouldEqual, "WR Bye")
		})
	})

	Convey("Given invalid slot configurations", t, func() {
		cases := []lineup.Config{
			{},
			{lineup.SlotQB: -1, lineup.SlotRB: 2},
			{lineup.SlotWR: lineup.MaxSlots + 1},
			{lineup.Slot("K"): 1},
		}
		for _, cfg := range cases {
			_, err := lineup.Optimize(nil, cfg)
			So(errors.Is(err, lineup.ErrInvalidSlots), ShouldBeTrue)
		}
	})
}
