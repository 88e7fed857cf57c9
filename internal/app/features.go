package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/lineup"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/names"
	"github.com/okian/gridcast/internal/domain/types"
)

// History returns per-rank averages for every past season of format and
// their mean. Like Baselines, a format without history falls back to PPR.
func (s *Service) History(_ context.Context, format string) (types.HistoryReport, error) {
	if !s.isStarted() {
		return types.HistoryReport{}, ErrNotStarted
	}
	f := s.defaultFormat
	if format != "" {
		parsed, err := model.ParseScoringFormat(format)
		if err != nil {
			return types.HistoryReport{}, err
		}
		f = parsed
	}

	src := f
	if len(s.dataset.HistoricalYears(src)) == 0 && src != model.PPR {
		src = model.PPR
	}
	if len(s.dataset.HistoricalYears(src)) == 0 {
		return types.HistoryReport{}, fmt.Errorf("%s history: %w", f, types.ErrNoData)
	}
	h := baseline.BuildHistory(s.dataset.Historical[src], s.historyDepth)
	return types.FromHistory(string(f), h), nil
}

// Waivers lists the best projections not on any roster, filtered by position
// and a minimum projection. rostered holds display names, matched after
// normalization.
func (s *Service) Waivers(ctx context.Context, format, position string, week int, minPoints float64, rostered []string, limit int) (types.WaiverList, error) {
	pos, err := parsePosition(position)
	if err != nil {
		return types.WaiverList{}, err
	}
	snap, err := s.snapshot(ctx, format, week)
	if err != nil {
		return types.WaiverList{}, err
	}
	ps, err := snap.Available(pos, minPoints, rostered, limit)
	if err != nil {
		return types.WaiverList{}, err
	}

	out := types.WaiverList{
		RunID:      snap.RunID,
		Format:     string(snap.Format),
		Week:       snap.Week,
		MinPoints:  minPoints,
		Count:      len(ps),
		Candidates: make([]types.WaiverCandidate, len(ps)),
	}
	for i, p := range ps {
		out.Candidates[i] = types.WaiverCandidate{
			Projection: types.FromProjection(p),
			Priority:   types.WaiverPriority(i),
		}
	}
	return out, nil
}

// Lineup picks the best starters from a roster of player names. Names that
// match no projection are reported back instead of failing the request.
func (s *Service) Lineup(ctx context.Context, req types.LineupRequest) (types.Lineup, error) {
	cfg := lineup.DefaultConfig()
	if req.Slots != nil {
		cfg = make(lineup.Config, len(req.Slots))
		for slot, n := range req.Slots {
			cfg[lineup.Slot(strings.ToUpper(strings.TrimSpace(slot)))] = n
		}
	}
	if err := cfg.Validate(); err != nil {
		return types.Lineup{}, err
	}
	if len(req.Players) == 0 {
		return types.Lineup{}, lineup.ErrEmptyRoster
	}

	snap, err := s.snapshot(ctx, req.Format, req.Week)
	if err != nil {
		return types.Lineup{}, err
	}

	seen := make(map[string]struct{}, len(req.Players))
	roster := make([]model.Projection, 0, len(req.Players))
	var unmatched []string
	for _, name := range req.Players {
		key := names.Normalize(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		p, ok := snap.Player(name)
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		roster = append(roster, p)
	}

	l, err := lineup.Optimize(roster, cfg)
	if err != nil {
		return types.Lineup{}, err
	}
	out := types.FromLineup(l)
	out.RunID = snap.RunID
	out.Format = string(snap.Format)
	out.Week = snap.Week
	out.Unmatched = unmatched
	return out, nil
}
