// Package archive persists published snapshots to SQLite for later review.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/gridcast/internal/adapters/repository"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultListLimit bounds ListRuns when no limit is given.
const DefaultListLimit = 20

// Run is the archived summary of one snapshot.
type Run struct {
	ID              string
	Format          model.ScoringFormat
	Season          int
	Week            int
	CreatedAt       time.Time
	Duration        time.Duration
	BaselineYear    int
	ProjectionCount int
	Positions       []model.PositionAccuracy
}

// Archive writes snapshots into a SQLite database.
type Archive struct {
	path        string
	busyTimeout time.Duration
	logger      logger.Logger

	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open creates the database at path if needed, applies migrations and
// returns a ready archive.
func Open(ctx context.Context, path string, opts ...Option) (*Archive, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	a := &Archive{
		path:        path,
		busyTimeout: DefaultBusyTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get()
	}
	a.logger = a.logger.Named("archive")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	version, err := migrateUp(path)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)",
		path, a.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// SQLite allows one writer; a single connection serializes saves.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("ping archive: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	a.db = db

	a.logger.Info(ctx, "archive opened",
		logger.String("path", path),
		logger.Int("schema_version", int(version)),
	)
	return a, nil
}

// Path returns the database file path.
func (a *Archive) Path() string { return a.path }

// Save stores snap and its projections in one transaction. Saving a run id
// twice is a no-op.
func (a *Archive) Save(ctx context.Context, snap *repository.Snapshot) (err error) {
	if snap == nil {
		return ErrNilSnapshot
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrArchiveClosed
	}
	defer func() { metrics.RecordArchiveWrite(err) }()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO runs
			(id, format, season, week, created_at, duration_ms, baseline_year, projection_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, string(snap.Format), snap.Season, snap.Week,
		snap.CreatedAt.UTC().UnixMilli(), snap.Duration.Milliseconds(),
		snap.BaselineYear, len(snap.Projections))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", snap.RunID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}

	projStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_projections
			(run_id, ord, name, position, projected_points, floor, ceiling, trailing_average,
			 games_played, positional_rank, slate_rank, tier, reliability,
			 correlation, mean_abs_rank_error, within_tolerance, signed_rank_bias)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare projections: %w", err)
	}
	defer projStmt.Close()

	for i, p := range snap.Projections {
		var reliability, corr, mae, within, bias sql.NullFloat64
		if p.HasAccuracy {
			reliability = sql.NullFloat64{Float64: p.ReliabilityScore, Valid: true}
			corr = sql.NullFloat64{Float64: p.Correlation, Valid: true}
			mae = sql.NullFloat64{Float64: p.MeanAbsoluteRankError, Valid: true}
			within = sql.NullFloat64{Float64: p.WithinToleranceRate, Valid: true}
			bias = sql.NullFloat64{Float64: p.AverageSignedRankBias, Valid: true}
		}
		if _, err = projStmt.ExecContext(ctx, snap.RunID, i, p.Name, string(p.Position),
			p.ProjectedPoints, p.Floor, p.Ceiling, p.TrailingAverage, p.GamesPlayed,
			p.PositionalRank, p.PositionRankWithinSlate, string(p.Tier), reliability,
			corr, mae, within, bias); err != nil {
			return fmt.Errorf("insert projection %q: %w", p.Name, err)
		}
	}

	for _, pos := range model.Positions {
		agg, ok := snap.Accuracy.Position(pos)
		if !ok {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO run_positions
				(run_id, position, player_count, mean_correlation, mean_mae, mean_within_tolerance, mean_reliability)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.RunID, string(pos), agg.PlayerCount, agg.MeanCorrelation, agg.MeanMAE,
			agg.MeanWithinTolerance, agg.MeanReliability); err != nil {
			return fmt.Errorf("insert position %s: %w", pos, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", snap.RunID, err)
	}
	a.logger.Debug(ctx, "run archived",
		logger.String("run_id", snap.RunID),
		logger.String("format", string(snap.Format)),
		logger.Int("week", snap.Week),
		logger.Int("projections", len(snap.Projections)),
	)
	return nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// uses DefaultListLimit.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrArchiveClosed
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, format, season, week, created_at, duration_ms, baseline_year, projection_count
		FROM runs
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close runs: %w", err)
	}

	for i := range runs {
		if runs[i].Positions, err = a.positions(ctx, runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Run returns one archived run with its projections in stored order.
func (a *Archive) Run(ctx context.Context, id string) (Run, []model.Projection, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return Run{}, nil, ErrArchiveClosed
	}

	row := a.db.QueryRowContext(ctx, `
		SELECT id, format, season, week, created_at, duration_ms, baseline_year, projection_count
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, nil, err
	}
	if run.Positions, err = a.positions(ctx, id); err != nil {
		return Run{}, nil, err
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT name, position, projected_points, floor, ceiling, trailing_average,
		       games_played, positional_rank, slate_rank, tier, reliability,
		       correlation, mean_abs_rank_error, within_tolerance, signed_rank_bias
		FROM run_projections WHERE run_id = ? ORDER BY ord`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query projections: %w", err)
	}
	defer rows.Close()

	projections := make([]model.Projection, 0, run.ProjectionCount)
	for rows.Next() {
		var (
			p                              model.Projection
			pos, tier                      string
			reliability, corr, mae, within sql.NullFloat64
			bias                           sql.NullFloat64
		)
		if err := rows.Scan(&p.Name, &pos, &p.ProjectedPoints, &p.Floor, &p.Ceiling,
			&p.TrailingAverage, &p.GamesPlayed, &p.PositionalRank, &p.PositionRankWithinSlate,
			&tier, &reliability, &corr, &mae, &within, &bias); err != nil {
			return Run{}, nil, fmt.Errorf("scan projection: %w", err)
		}
		p.Position = model.Position(pos)
		p.Tier = model.Tier(tier)
		p.HasExpertRank = p.PositionalRank != model.NoRank
		if reliability.Valid {
			p.HasAccuracy = true
			p.ReliabilityScore = reliability.Float64
			p.Correlation = corr.Float64
			p.MeanAbsoluteRankError = mae.Float64
			p.WithinToleranceRate = within.Float64
			p.AverageSignedRankBias = bias.Float64
		}
		projections = append(projections, p)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate projections: %w", err)
	}
	return run, projections, nil
}

// Count returns the number of archived runs.
func (a *Archive) Count(ctx context.Context) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return 0, ErrArchiveClosed
	}
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return n, nil
}

// Close releases the database. Further calls return ErrArchiveClosed.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func (a *Archive) positions(ctx context.Context, runID string) ([]model.PositionAccuracy, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT position, player_count, mean_correlation, mean_mae, mean_within_tolerance, mean_reliability
		FROM run_positions WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	byPos := make(map[model.Position]model.PositionAccuracy)
	for rows.Next() {
		var (
			agg model.PositionAccuracy
			pos string
		)
		if err := rows.Scan(&pos, &agg.PlayerCount, &agg.MeanCorrelation, &agg.MeanMAE,
			&agg.MeanWithinTolerance, &agg.MeanReliability); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		agg.Position = model.Position(pos)
		byPos[agg.Position] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}

	out := make([]model.PositionAccuracy, 0, len(byPos))
	for _, pos := range model.Positions {
		if agg, ok := byPos[pos]; ok {
			out = append(out, agg)
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r         Run
		format    string
		createdMs int64
		durMs     int64
	)
	if err := s.Scan(&r.ID, &format, &r.Season, &r.Week, &createdMs, &durMs,
		&r.BaselineYear, &r.ProjectionCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.Format = model.ScoringFormat(format)
	r.CreatedAt = time.UnixMilli(createdMs).UTC()
	r.Duration = time.Duration(durMs) * time.Millisecond
	return r, nil
}
