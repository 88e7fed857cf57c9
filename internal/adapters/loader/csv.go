package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/gridcast/internal/domain/model"
)

// DefaultRankStdDev replaces a missing or zero rank standard deviation.
const DefaultRankStdDev = 5.0

// header maps upper-cased column names to their index.
type header map[string]int

func newHeader(cols []string) header {
	h := make(header, len(cols))
	for i, c := range cols {
		c = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")))
		if _, dup := h[c]; !dup {
			h[c] = i
		}
	}
	return h
}

// index returns the first alias present.
func (h header) index(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := h[strings.ToUpper(a)]; ok {
			return i, true
		}
	}
	return 0, false
}

func (h header) require(aliases ...string) (int, error) {
	i, ok := h.index(aliases...)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(aliases, "|"))
	}
	return i, nil
}

// scoreSchema locates the columns of a weekly points table.
type scoreSchema struct {
	player, pos int
	weeks       map[int]int // week -> column
}

func newScoreSchema(h header) (scoreSchema, error) {
	var s scoreSchema
	var err error
	if s.player, err = h.require("Player"); err != nil {
		return s, err
	}
	if s.pos, err = h.require("Pos"); err != nil {
		return s, err
	}
	s.weeks = make(map[int]int, model.LastWeek)
	for w := model.FirstWeek; w <= model.LastWeek; w++ {
		if i, ok := h.index(strconv.Itoa(w)); ok {
			s.weeks[w] = i
		}
	}
	return s, nil
}

// rankSchema locates the columns of an expert consensus ranking table.
type rankSchema struct {
	player, pos int
	std         int
	hasStd      bool
}

func newRankSchema(h header) (rankSchema, error) {
	var s rankSchema
	var err error
	if s.player, err = h.require("PLAYER NAME", "Player"); err != nil {
		return s, err
	}
	if s.pos, err = h.require("POS", "Pos"); err != nil {
		return s, err
	}
	s.std, s.hasStd = h.index("STD.DEV", "STD DEV", "STDDEV")
	return s, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseScore reads one weekly cell. Blank, "-", "BYE" and non-numeric cells
// carry no data.
func parseScore(cell string) (float64, bool) {
	switch strings.ToUpper(cell) {
	case "", "-", "BYE":
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseScores reads a weekly fantasy points table. Rows without a name or a
// supported position are skipped.
func ParseScores(r io.Reader) ([]model.PlayerWeekRecord, error) {
	cr := newReader(r)
	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	schema, err := newScoreSchema(newHeader(cols))
	if err != nil {
		return nil, err
	}

	var out []model.PlayerWeekRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		name := field(row, schema.player)
		if name == "" {
			continue
		}
		pos, err := model.ParsePosition(field(row, schema.pos))
		if err != nil {
			continue
		}
		rec := model.PlayerWeekRecord{Name: name, Position: pos, WeeklyScores: make(map[int]float64)}
		for w, i := range schema.weeks {
			if v, ok := parseScore(field(row, i)); ok {
				rec.WeeklyScores[w] = v
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// ParseRankings reads an expert consensus ranking table. The positional rank
// comes from the position label ("WR12" is rank 12). Rows without a usable
// rank, or with an unreadable or negative standard deviation, are dropped. A
// blank or zero standard deviation becomes defaultStd.
func ParseRankings(r io.Reader, defaultStd float64) ([]model.WeeklyProjectionEntry, error) {
	cr := newReader(r)
	cols, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	schema, err := newRankSchema(newHeader(cols))
	if err != nil {
		return nil, err
	}

	var out []model.WeeklyProjectionEntry
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		name := field(row, schema.player)
		if name == "" {
			continue
		}
		label := field(row, schema.pos)
		pos, err := model.ParsePosition(label)
		if err != nil {
			continue
		}
		rank := positionRank(label)
		if rank <= 0 {
			continue
		}

		std := defaultStd
		if schema.hasStd {
			if cell := field(row, schema.std); cell != "" {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				if v > 0 {
					std = v
				}
			}
		}

		out = append(out, model.WeeklyProjectionEntry{
			Name:           name,
			Position:       pos,
			PositionalRank: float64(rank),
			RankStdDev:     std,
		})
	}
	return out, nil
}

// positionRank extracts the digits of a label like "RB7".
func positionRank(label string) int {
	var b strings.Builder
	for _, r := range label {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
