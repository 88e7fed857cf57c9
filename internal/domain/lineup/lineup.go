// Package lineup picks starters from a roster of projected players.
package lineup

import (
	"fmt"
	"sort"

	"github.com/okian/gridcast/internal/domain/model"
)

// MaxSlots caps any single slot count.
const MaxSlots = 5

// Slot names a lineup position. Flex accepts RB, WR and TE.
type Slot string

// Slot values in display order.
const (
	SlotQB   Slot = "QB"
	SlotRB   Slot = "RB"
	SlotWR   Slot = "WR"
	SlotTE   Slot = "TE"
	SlotFlex Slot = "FLEX"
)

// Slots lists the slot names in display order.
var Slots = []Slot{SlotQB, SlotRB, SlotWR, SlotTE, SlotFlex}

// Config is the number of starters per slot.
type Config map[Slot]int

// DefaultConfig is one QB, two RB, two WR, one TE and one flex.
func DefaultConfig() Config {
	return Config{SlotQB: 1, SlotRB: 2, SlotWR: 2, SlotTE: 1, SlotFlex: 1}
}

// Validate rejects counts outside 0..MaxSlots, unknown slots and a lineup
// with no starters.
func (c Config) Validate() error {
	total := 0
	for slot, n := range c {
		if !slot.known() {
			return fmt.Errorf("%w: unknown slot %q", ErrInvalidSlots, slot)
		}
		if n < 0 || n > MaxSlots {
			return fmt.Errorf("%w: %s=%d not in 0..%d", ErrInvalidSlots, slot, n, MaxSlots)
		}
		total += n
	}
	if total == 0 {
		return fmt.Errorf("%w: no starters", ErrInvalidSlots)
	}
	return nil
}

func (s Slot) known() bool {
	for _, k := range Slots {
		if s == k {
			return true
		}
	}
	return false
}

// Starter is a player placed in a slot.
type Starter struct {
	Slot       Slot
	Projection model.Projection
}

// Lineup is the chosen starters, the bench and the starters' totals.
type Lineup struct {
	Starters []Starter
	Bench    []model.Projection
	// Open counts slots left empty for lack of eligible players.
	Open map[Slot]int

	Projected float64
	Floor     float64
	Ceiling   float64
}

// Optimize fills each positional slot with the highest projected players at
// that position, then fills flex from the best remaining RB, WR and TE.
// Starters come back in slot order, best first within a slot.
func Optimize(roster []model.Projection, cfg Config) (Lineup, error) {
	if err := cfg.Validate(); err != nil {
		return Lineup{}, err
	}

	byPos := make(map[model.Position][]model.Projection, len(model.Positions))
	for _, p := range roster {
		byPos[p.Position] = append(byPos[p.Position], p)
	}
	for _, ps := range byPos {
		sortBest(ps)
	}

	var l Lineup
	l.Open = map[Slot]int{}
	var flexPool []model.Projection
	for _, pos := range model.Positions {
		ps := byPos[pos]
		n := min(cfg[Slot(pos)], len(ps))
		for _, p := range ps[:n] {
			l.add(Slot(pos), p)
		}
		if open := cfg[Slot(pos)] - n; open > 0 {
			l.Open[Slot(pos)] = open
		}
		rest := ps[n:]
		if pos == model.QB {
			l.Bench = append(l.Bench, rest...)
			continue
		}
		flexPool = append(flexPool, rest...)
	}

	sortBest(flexPool)
	n := min(cfg[SlotFlex], len(flexPool))
	for _, p := range flexPool[:n] {
		l.add(SlotFlex, p)
	}
	if open := cfg[SlotFlex] - n; open > 0 {
		l.Open[SlotFlex] = open
	}
	l.Bench = append(l.Bench, flexPool[n:]...)
	sortBest(l.Bench)
	return l, nil
}

func (l *Lineup) add(slot Slot, p model.Projection) {
	l.Starters = append(l.Starters, Starter{Slot: slot, Projection: p})
	l.Projected += p.ProjectedPoints
	l.Floor += p.Floor
	l.Ceiling += p.Ceiling
}

func sortBest(ps []model.Projection) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].ProjectedPoints != ps[j].ProjectedPoints {
			return ps[i].ProjectedPoints > ps[j].ProjectedPoints
		}
		return ps[i].Name < ps[j].Name
	})
}
