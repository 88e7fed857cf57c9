// Package tier buckets positional ranks into valuation tiers.
package tier

import "github.com/okian/gridcast/internal/domain/model"

// Bounds are the inclusive upper ranks of the Elite, High and Mid tiers.
// Anything deeper is Stream.
type Bounds struct {
	Elite int
	High  int
	Mid   int
}

var bounds = map[model.Position]Bounds{
	model.QB: {Elite: 6, High: 12, Mid: 24},
	model.RB: {Elite: 12, High: 24, Mid: 36},
	model.WR: {Elite: 12, High: 24, Mid: 36},
	model.TE: {Elite: 6, High: 12, Mid: 20},
}

// BoundsFor returns the tier bounds for pos.
func BoundsFor(pos model.Position) (Bounds, bool) {
	b, ok := bounds[pos]
	return b, ok
}

// Classify maps a within-slate positional rank to a tier. Ranks below 1 mean
// the player was excluded from ranking and are always Bye.
func Classify(pos model.Position, rank int) model.Tier {
	if rank <= 0 {
		return model.TierBye
	}
	b, ok := bounds[pos]
	if !ok {
		return model.TierStream
	}
	switch {
	case rank <= b.Elite:
		return model.TierElite
	case rank <= b.High:
		return model.TierHigh
	case rank <= b.Mid:
		return model.TierMid
	default:
		return model.TierStream
	}
}
