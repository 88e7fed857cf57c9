package service

import (
	"github.com/okian/gridcast/internal/adapters/loader"
	"github.com/okian/gridcast/internal/domain/accuracy"
	"github.com/okian/gridcast/internal/domain/baseline"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/projection"
	"github.com/okian/gridcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending recompute jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many in-flight recompute keys are tracked.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxSnapshots bounds the in-memory snapshot store.
func WithMaxSnapshots(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSnapshots = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoader sets where Start reads the dataset from.
func WithLoader(l *loader.Loader) Option {
	return func(s *Service) {
		s.loader = l
	}
}

// WithDataset supplies an already loaded dataset. It takes precedence over
// WithLoader.
func WithDataset(ds *loader.Dataset) Option {
	return func(s *Service) {
		s.dataset = ds
	}
}

// WithArchive persists every published snapshot.
func WithArchive(a Archiver) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// WithDefaultFormat sets the format used when a request names none.
func WithDefaultFormat(f model.ScoringFormat) Option {
	return func(s *Service) {
		if f != "" {
			s.defaultFormat = f
		}
	}
}

// WithAccuracyOptions configures the accuracy estimator.
func WithAccuracyOptions(opts ...accuracy.Option) Option {
	return func(s *Service) {
		s.accuracyOpts = append(s.accuracyOpts, opts...)
	}
}

// WithProjectionOptions configures the projection engine.
func WithProjectionOptions(opts ...projection.Option) Option {
	return func(s *Service) {
		s.projectionOpts = append(s.projectionOpts, opts...)
	}
}

// WithHistoryDepth sets how many ranks per position History reports.
func WithHistoryDepth(depth int) Option {
	return func(s *Service) {
		if depth > 0 {
			s.historyDepth = depth
		}
	}
}

// WithBaselineOptions configures baseline construction.
func WithBaselineOptions(opts ...baseline.Option) Option {
	return func(s *Service) {
		s.baselineOpts = append(s.baselineOpts, opts...)
	}
}

// WithWarmup computes the default format's next-week snapshot during Start.
func WithWarmup(enabled bool) Option {
	return func(s *Service) {
		s.warmup = enabled
	}
}
