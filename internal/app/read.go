package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/gridcast/internal/adapters/archive"
	"github.com/okian/gridcast/internal/adapters/repository"
	"github.com/okian/gridcast/internal/domain/accuracy"
	"github.com/okian/gridcast/internal/domain/dedupe"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/projection"
	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/metrics"
)

// resolve parses a requested format and week. An empty format selects the
// default and week 0 selects the week after the latest played one.
func (s *Service) resolve(format string, week int) (model.ScoringFormat, int, error) {
	f := s.defaultFormat
	if format != "" {
		parsed, err := model.ParseScoringFormat(format)
		if err != nil {
			return "", 0, err
		}
		f = parsed
	}
	if week == 0 {
		week = s.dataset.NextWeek()
	}
	if err := model.CheckWeek(week); err != nil {
		return "", 0, err
	}
	return f, week, nil
}

// snapshot returns the stored snapshot for the request, computing it on a
// miss. Concurrent misses for the same key share one computation.
func (s *Service) snapshot(ctx context.Context, format string, week int) (*repository.Snapshot, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	f, w, err := s.resolve(format, week)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Get(ctx, f, w)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	v, err, _ := s.flight.Do(dedupe.Key(f, w), func() (any, error) {
		if snap, err := s.store.Get(ctx, f, w); err == nil {
			return snap, nil
		}
		return s.compute(ctx, s.newID(), f, w)
	})
	if err != nil {
		return nil, err
	}
	return v.(*repository.Snapshot), nil
}

func parsePosition(position string) (model.Position, error) {
	if position == "" {
		return "", nil
	}
	return model.ParsePosition(position)
}

// Projections returns up to limit projections for one format, week and
// optional position. A limit of 0 returns everything.
func (s *Service) Projections(ctx context.Context, format, position string, week, limit int) (types.ProjectionList, error) {
	pos, err := parsePosition(position)
	if err != nil {
		return types.ProjectionList{}, err
	}
	snap, err := s.snapshot(ctx, format, week)
	if err != nil {
		return types.ProjectionList{}, err
	}
	ps, err := snap.Filter(pos, limit)
	if err != nil {
		return types.ProjectionList{}, err
	}
	return types.ProjectionList{
		RunID:       snap.RunID,
		Format:      string(snap.Format),
		Season:      snap.Season,
		Week:        snap.Week,
		GeneratedAt: snap.CreatedAt,
		Count:       len(ps),
		Projections: types.FromProjections(ps),
	}, nil
}

// Player returns one player's projection, looked up by normalized name.
func (s *Service) Player(ctx context.Context, format string, week int, name string) (types.Projection, error) {
	snap, err := s.snapshot(ctx, format, week)
	if err != nil {
		return types.Projection{}, err
	}
	p, ok := snap.Player(name)
	if !ok {
		return types.Projection{}, fmt.Errorf("player %q: %w", name, types.ErrNotFound)
	}
	return types.FromProjection(p), nil
}

// Accuracy returns the accuracy records behind a snapshot, best first.
func (s *Service) Accuracy(ctx context.Context, format, position string, week int, withWeeks bool) (types.AccuracyReport, error) {
	pos, err := parsePosition(position)
	if err != nil {
		return types.AccuracyReport{}, err
	}
	snap, err := s.snapshot(ctx, format, week)
	if err != nil {
		return types.AccuracyReport{}, err
	}

	var positions []model.Position
	if pos != "" {
		positions = []model.Position{pos}
	} else {
		positions = model.Positions
	}

	report := types.AccuracyReport{
		RunID:     snap.RunID,
		Format:    string(snap.Format),
		Week:      snap.Week,
		Positions: make([]types.PositionAccuracy, 0, len(positions)),
	}
	for _, p := range positions {
		agg, ok := snap.Accuracy.Position(p)
		if !ok {
			agg = model.PositionAccuracy{Position: p}
		}
		report.Positions = append(report.Positions,
			types.FromPositionAccuracy(agg, projection.PositionWeight(snap.Accuracy, p)))
	}

	records := snap.Accuracy.Records(positions...)
	report.Players = make([]types.AccuracyRecord, len(records))
	for i, r := range records {
		report.Players[i] = types.FromAccuracyRecord(r, withWeeks)
	}
	return report, nil
}

// Baselines returns the positional baseline table for format.
func (s *Service) Baselines(_ context.Context, format string) (types.BaselineReport, error) {
	if !s.isStarted() {
		return types.BaselineReport{}, ErrNotStarted
	}
	f := s.defaultFormat
	if format != "" {
		parsed, err := model.ParseScoringFormat(format)
		if err != nil {
			return types.BaselineReport{}, err
		}
		f = parsed
	}

	year, table := s.baselines(f)
	if year == 0 {
		return types.BaselineReport{}, fmt.Errorf("%s history: %w", f, types.ErrNoData)
	}
	report := types.BaselineReport{
		Format:    string(f),
		Year:      year,
		Positions: make(map[string][]float64, len(model.Positions)),
	}
	for _, pos := range model.Positions {
		report.Positions[string(pos)] = table.Values(pos)
	}
	return report, nil
}

// Runs lists archived runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]types.Run, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("run archive: %w", types.ErrUnavailable)
	}
	runs, err := s.archive.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.Run, len(runs))
	for i, r := range runs {
		out[i] = fromRun(r)
	}
	return out, nil
}

// Run returns one archived run with its projections.
func (s *Service) Run(ctx context.Context, id string) (types.Run, error) {
	if s.archive == nil {
		return types.Run{}, fmt.Errorf("run archive: %w", types.ErrUnavailable)
	}
	r, ps, err := s.archive.Run(ctx, id)
	if errors.Is(err, archive.ErrRunNotFound) {
		return types.Run{}, fmt.Errorf("run %q: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return types.Run{}, err
	}
	out := fromRun(r)
	out.Projections = types.FromProjections(ps)
	return out, nil
}

func fromRun(r archive.Run) types.Run {
	out := types.Run{
		ID:              r.ID,
		Format:          string(r.Format),
		Season:          r.Season,
		Week:            r.Week,
		CreatedAt:       r.CreatedAt,
		DurationMs:      r.Duration.Milliseconds(),
		BaselineYear:    r.BaselineYear,
		ProjectionCount: r.ProjectionCount,
	}
	for _, p := range r.Positions {
		res := accuracy.Result{Positions: map[model.Position]model.PositionAccuracy{p.Position: p}}
		out.Positions = append(out.Positions, types.FromPositionAccuracy(p, projection.PositionWeight(res, p.Position)))
	}
	return out
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{
		Started:       s.started,
		DefaultFormat: string(s.defaultFormat),
		Workers:       s.workerCount,
		QueueCapacity: s.queueSize,
		Archive:       s.archive != nil,
		Snapshots:     []types.SnapshotInfo{},
	}
	if !s.started {
		return stats
	}

	stats.Season = s.dataset.Year
	stats.CurrentWeek = s.dataset.CurrentWeek
	stats.NextWeek = s.dataset.NextWeek()
	stats.QueueLength = s.queue.Len(ctx)
	stats.InFlight = s.deduper.Size()
	stats.Rows = s.dataset.Counts()
	for _, k := range s.store.Keys(ctx) {
		stats.Snapshots = append(stats.Snapshots, types.SnapshotInfo{Format: string(k.Format), Week: k.Week})
	}
	if s.archive != nil {
		if n, err := s.archive.Count(ctx); err == nil {
			stats.ArchiveRuns = n
		}
	}
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}
