package maintenance

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/metrics"
)

const (
	defaultSyncSpec  = "@hourly"
	defaultSweepSpec = "@hourly"
)

// Scheduler coordinates the background maintenance work: sweeping expired
// cache rows and running the gated full sync on their configured cron specs.
type Scheduler struct {
	store *cache.Store
	sync  *services.SyncService
	cron  *cron.Cron
	log   *zap.Logger

	syncSchedule  string
	sweepSchedule string
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSyncSchedule overrides the cron specification for the full sync pass.
func WithSyncSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.syncSchedule = spec
		}
	}
}

// WithSweepSchedule overrides the cron specification for the expired-row sweep.
func WithSweepSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.sweepSchedule = spec
		}
	}
}

// NewScheduler constructs a Scheduler with sensible defaults. A nil dependency
// results in the corresponding job being skipped.
func NewScheduler(store *cache.Store, sync *services.SyncService, opts ...Option) *Scheduler {
	scheduler := &Scheduler{
		store:         store,
		sync:          sync,
		syncSchedule:  defaultSyncSpec,
		sweepSchedule: defaultSweepSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(scheduler)
	}

	if scheduler.cron == nil {
		scheduler.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return scheduler
}

// Start registers the maintenance jobs with the cron scheduler and launches it
// if at least one job is enabled.
func (s *Scheduler) Start() error {
	if s.store == nil && s.sync == nil {
		return nil
	}

	if s.store != nil {
		if _, err := s.cron.AddFunc(s.sweepSchedule, func() {
			ctx := context.Background()
			swept, err := s.store.SweepExpired(ctx)
			if err != nil {
				s.log.Warn("expired cache sweep failed", zap.Error(err))
				return
			}
			metrics.SweptEntries.Add(float64(swept))
			if swept > 0 {
				s.log.Info("expired cache entries removed", zap.Int64("count", swept))
			}
		}); err != nil {
			return err
		}
	}

	if s.sync != nil {
		if _, err := s.cron.AddFunc(s.syncSchedule, func() {
			report := s.sync.RunFullSync(context.Background())
			s.log.Info("scheduled sync pass finished",
				zap.Int64("expired_cleaned", report.ExpiredCleaned),
				zap.Stringer("popular_movies", report.PopularMovies),
				zap.Stringer("popular_tv_shows", report.PopularTVShows),
				zap.Stringer("trending", report.Trending))
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes the sweep and the full sync sequentially. Primarily used in
// tests and at startup to avoid serving a cold cache until the first tick.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if s.store != nil {
		if swept, err := s.store.SweepExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		} else {
			metrics.SweptEntries.Add(float64(swept))
		}
	}

	if s.sync != nil {
		report := s.sync.RunFullSync(ctx)
		if report.PopularMovies == services.JobFailed ||
			report.PopularTVShows == services.JobFailed ||
			report.Trending == services.JobFailed {
			s.log.Warn("startup sync pass had failures",
				zap.Stringer("popular_movies", report.PopularMovies),
				zap.Stringer("popular_tv_shows", report.PopularTVShows),
				zap.Stringer("trending", report.Trending))
		}
	}

	return errs
}
