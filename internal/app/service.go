// Package service owns the loaded dataset and turns it into published
// projection snapshots, either on demand or through the recompute queue.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okian/gridcast/internal/adapters/archive"
	"github.com/okian/gridcast/internal/adapters/loader"
	"github.com/okian/gridcast/internal/adapters/mq/queue"
	"github.com/okian/gridcast/internal/adapters/mq/worker"
	"github.com/okian/gridcast/internal/adapters/repository"
	"github.com/okian/gridcast/internal/domain/accuracy"
	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/dedupe"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/projection"
	"github.com/okian/gridcast/internal/domain/types"
	"github.com/okian/gridcast/pkg/logger"
	"github.com/okian/gridcast/pkg/metrics"
)

const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
)

// Archiver persists published snapshots.
type Archiver interface {
	Save(ctx context.Context, snap *repository.Snapshot) error
	ListRuns(ctx context.Context, limit int) ([]archive.Run, error)
	Run(ctx context.Context, id string) (archive.Run, []model.Projection, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Service implements the API dependencies for the projection engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	archive Archiver
	loader  *loader.Loader
	dataset *loader.Dataset

	estimator *accuracy.Estimator
	engine    *projection.Engine
	flight    singleflight.Group

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	maxSnapshots   int
	defaultFormat  model.ScoringFormat
	warmup         bool
	accuracyOpts   []accuracy.Option
	projectionOpts []projection.Option
	baselineOpts   []baseline.Option
	historyDepth   int

	started bool
	newID   func() string
	logger  logger.Logger
}

// New constructs a Service. Start must be called before use.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   defaultWorkerCount,
		queueSize:     defaultQueueSize,
		dedupeSize:    dedupe.DefaultMaxSize,
		maxSnapshots:  repository.DefaultMaxSnapshots,
		defaultFormat: model.PPR,
		historyDepth:  baseline.DefaultHistoryDepth,
		warmup:        true,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	s.estimator = accuracy.NewEstimator(s.accuracyOpts...)
	s.engine = projection.NewEngine(s.projectionOpts...)
	return s
}

// Start loads the dataset if needed, starts the worker pool and, unless
// disabled, computes the default format's next-week snapshot. A failed Start
// closes the archive, which the service owns from then on.
func (s *Service) Start(ctx context.Context) error {
	if err := s.start(ctx); err != nil {
		if s.archive != nil {
			if cerr := s.archive.Close(); cerr != nil {
				s.logger.Warn(ctx, "closing archive after failed start", logger.Error(cerr))
			}
		}
		return err
	}
	if !s.warmup {
		return nil
	}
	week := s.dataset.NextWeek()
	if _, err := s.compute(ctx, s.newID(), s.defaultFormat, week); err != nil {
		s.logger.Warn(ctx, "warmup recompute failed",
			logger.String("format", string(s.defaultFormat)),
			logger.Int("week", week),
			logger.Error(err),
		)
	}
	return nil
}

func (s *Service) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting projection service...")

	if s.dataset == nil {
		if s.loader == nil {
			return ErrNoDataset
		}
		ds, err := s.loader.Load(ctx)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
		s.dataset = ds
	}

	s.store = repository.NewSnapshotStore(repository.WithMaxSnapshots(s.maxSnapshots))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.ProcessorFunc(s.process),
		worker.WithPoolLogger(s.logger))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "projection service started",
		logger.Int("season", s.dataset.Year),
		logger.Int("current_week", s.dataset.CurrentWeek),
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Bool("archive", s.archive != nil),
	)
	return nil
}

// Stop drains pending recomputes and closes the archive.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping projection service...")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("worker pool: %w", err))
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "projection service stopped")
	return errors.Join(errs...)
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// RequestRecompute schedules a rebuild of the snapshot for format and week.
// A request matching one already pending is coalesced into it.
func (s *Service) RequestRecompute(ctx context.Context, format string, week int) (types.RecomputeResult, error) {
	if !s.isStarted() {
		return types.RecomputeResult{}, ErrNotStarted
	}
	f, w, err := s.resolve(format, week)
	if err != nil {
		return types.RecomputeResult{}, err
	}
	if len(s.dataset.Projections[w]) == 0 {
		return types.RecomputeResult{}, fmt.Errorf("expert ranks for week %d: %w", w, types.ErrNoData)
	}

	res := types.RecomputeResult{Format: string(f), Week: w}
	key := dedupe.Key(f, w)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordRecomputeCoalesced()
		res.Status = types.RecomputeDuplicate
		return res, nil
	}

	job := queue.Job{ID: s.newID(), Format: f, Week: w, RequestedAt: time.Now().UTC()}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordRecomputeRejected(metrics.ReasonBackpressure)
		return types.RecomputeResult{}, fmt.Errorf("recompute %s: %w", key, types.ErrBackpressure)
	}

	s.logger.Debug(ctx, "recompute queued",
		logger.String("job_id", job.ID),
		logger.String("format", string(f)),
		logger.Int("week", w),
	)
	res.ID = job.ID
	res.Status = types.RecomputeAccepted
	return res, nil
}

// process runs one queued recompute and releases its dedupe key.
func (s *Service) process(ctx context.Context, job queue.Job) error {
	defer s.deduper.Unrecord(ctx, dedupe.Key(job.Format, job.Week))
	_, err := s.compute(ctx, job.ID, job.Format, job.Week)
	return err
}

// Compute builds and publishes a snapshot synchronously.
func (s *Service) Compute(ctx context.Context, format model.ScoringFormat, week int) (*repository.Snapshot, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if err := model.CheckWeek(week); err != nil {
		return nil, err
	}
	return s.compute(ctx, s.newID(), format, week)
}

func (s *Service) compute(ctx context.Context, runID string, format model.ScoringFormat, week int) (*repository.Snapshot, error) {
	start := time.Now()
	snap, err := s.build(ctx, runID, format, week)
	snapDuration := time.Since(start)
	metrics.RecordRecompute(string(format), snapDuration, err)
	if err != nil {
		return nil, err
	}
	snap.Duration = snapDuration

	if err := s.store.Publish(ctx, snap); err != nil {
		return nil, fmt.Errorf("publish %s: %w", runID, err)
	}

	tiers := make(map[string]int)
	for t, n := range snap.TierCounts() {
		tiers[string(t)] = n
	}
	metrics.UpdateProjectionTiers(string(format), tiers)
	for _, pos := range model.Positions {
		agg, _ := snap.Accuracy.Position(pos)
		metrics.UpdatePositionAccuracy(string(format), string(pos), agg.PlayerCount, agg.MeanCorrelation)
	}

	if s.archive != nil {
		if err := s.archive.Save(ctx, snap); err != nil {
			s.logger.Warn(ctx, "archive write failed",
				logger.String("run_id", runID),
				logger.Error(err),
			)
		}
	}

	s.logger.Info(ctx, "snapshot published",
		logger.String("run_id", runID),
		logger.String("format", string(format)),
		logger.Int("week", week),
		logger.Int("projections", len(snap.Projections)),
		logger.Int("qualified_players", len(snap.Accuracy.Players)),
		logger.Duration("took", snapDuration),
	)
	return snap, nil
}

// build runs the engine for one format and evaluation week.
func (s *Service) build(ctx context.Context, runID string, format model.ScoringFormat, week int) (*repository.Snapshot, error) {
	ds := s.dataset
	season, ok := ds.Season(format)
	if !ok || len(season) == 0 {
		return nil, fmt.Errorf("%s current season: %w", format, types.ErrNoData)
	}
	ranks := ds.Projections[week]
	if len(ranks) == 0 {
		return nil, fmt.Errorf("expert ranks for week %d: %w", week, types.ErrNoData)
	}

	baseYear, table := s.baselines(format)
	acc, err := s.accuracy(ctx, season, projectionsBefore(ds.Projections, week))
	if err != nil {
		return nil, fmt.Errorf("accuracy: %w", err)
	}

	projections := s.engine.Compute(projection.Input{
		Season:    season,
		Week:      ranks,
		Baselines: table,
		Accuracy:  acc,
	})

	return &repository.Snapshot{
		RunID:        runID,
		Format:       format,
		Season:       ds.Year,
		Week:         week,
		CreatedAt:    time.Now().UTC(),
		BaselineYear: baseYear,
		Baselines:    table,
		Projections:  projections,
		Accuracy:     acc,
	}, nil
}

// baselines builds the table from the latest past season, falling back to
// PPR history when the format has none. A missing history yields an empty
// table so projections lean on trailing averages.
func (s *Service) baselines(format model.ScoringFormat) (int, *baseline.Table) {
	year, recs, ok := s.dataset.LatestHistorical(format)
	if !ok && format != model.PPR {
		year, recs, _ = s.dataset.LatestHistorical(model.PPR)
	}
	return year, baseline.Build(recs, s.baselineOpts...)
}

// accuracy evaluates every position concurrently.
func (s *Service) accuracy(ctx context.Context, season []model.PlayerWeekRecord, history map[int][]model.WeeklyProjectionEntry) (accuracy.Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	parts := make([]accuracy.Result, len(model.Positions))
	for i, pos := range model.Positions {
		i, pos := i, pos
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = s.estimator.ComputePosition(season, history, pos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return accuracy.Result{}, err
	}
	return accuracy.Merge(parts...), nil
}

// projectionsBefore keeps the weeks strictly before week so an evaluation
// never grades ranks against results it is projecting.
func projectionsBefore(all map[int][]model.WeeklyProjectionEntry, week int) map[int][]model.WeeklyProjectionEntry {
	out := make(map[int][]model.WeeklyProjectionEntry, len(all))
	for w, entries := range all {
		if w < week {
			out[w] = entries
		}
	}
	return out
}
