package tier

import (
	"testing"

	"github.com/okian/gridcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given the tier boundaries for every position", t, func() {
		cases := []struct {
			pos  model.Position
			rank int
			want model.Tier
		}{
			{model.QB, 1, model.TierElite},
			{model.QB, 6, model.TierElite},
			{model.QB, 7, model.TierHigh},
			{model.QB, 12, model.TierHigh},
			{model.QB, 13, model.TierMid},
			{model.QB, 24, model.TierMid},
			{model.QB, 25, model.TierStream},

			{model.RB, 12, model.TierElite},
			{model.RB, 13, model.TierHigh},
			{model.RB, 24, model.TierHigh},
			{model.RB, 25, model.TierMid},
			{model.RB, 36, model.TierMid},
			{model.RB, 37, model.TierStream},

			{model.WR, 12, model.TierElite},
			{model.WR, 13, model.TierHigh},
			{model.WR, 24, model.TierHigh},
			{model.WR, 25, model.TierMid},
			{model.WR, 36, model.TierMid},
			{model.WR, 37, model.TierStream},

			{model.TE, 6, model.TierElite},
			{model.TE, 7, model.TierHigh},
			{model.TE, 12, model.TierHigh},
			{model.TE, 13, model.TierMid},
			{model.TE, 20, model.TierMid},
			{model.TE, 21, model.TierStream},
		}

		Convey("Then each rank lands in the expected tier", func() {
			for _, c := range cases {
				So(Classify(c.pos, c.rank), ShouldEqual, c.want)
			}
		})
	})

	Convey("Given an unranked player", t, func() {
		Convey("Then the tier is Bye regardless of position", func() {
			for _, pos := range model.Positions {
				So(Classify(pos, 0), ShouldEqual, model.TierBye)
				So(Classify(pos, -1), ShouldEqual, model.TierBye)
			}
		})
	})

	Convey("Given an unsupported position", t, func() {
		So(Classify(model.Position("K"), 1), ShouldEqual, model.TierStream)
		_, ok := BoundsFor(model.Position("K"))
		So(ok, ShouldBeFalse)
		b, ok := BoundsFor(model.TE)
		So(ok, ShouldBeTrue)
		So(b.Mid, ShouldEqual, 20)
	})
}
