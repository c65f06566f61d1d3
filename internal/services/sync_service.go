package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/models"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/metrics"
)

// ErrCacheDisabled is returned when a sync job is invoked without an enabled cache.
var ErrCacheDisabled = errors.New("sync: cache is disabled")

// SyncService proactively refreshes the cache for popular and trending
// endpoints so that normal catalog reads are hits. Jobs call the upstream API
// directly, bypassing cache reads, and record their outcome in the sync
// status ledger.
type SyncService struct {
	db     *gorm.DB
	store  *cache.Store
	client UpstreamClient
	cache  app.CacheConfig
	sync   app.SyncConfig
	log    *zap.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration)
}

// SyncOption customises the SyncService.
type SyncOption func(*SyncService)

// WithSyncNow overrides the clock used for ledger timestamps and gating.
func WithSyncNow(now func() time.Time) SyncOption {
	return func(s *SyncService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleep overrides the inter-request delay function, primarily for testing.
func WithSleep(sleep func(context.Context, time.Duration)) SyncOption {
	return func(s *SyncService) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// NewSyncService constructs a SyncService.
func NewSyncService(db *gorm.DB, store *cache.Store, client UpstreamClient, cacheCfg app.CacheConfig, syncCfg app.SyncConfig, opts ...SyncOption) (*SyncService, error) {
	if db == nil {
		return nil, errors.New("sync service: db is required")
	}
	if client == nil {
		return nil, errors.New("sync service: upstream client is required")
	}
	if syncCfg.MaxPages <= 0 {
		syncCfg.MaxPages = 5
	}

	svc := &SyncService{
		db:     db,
		store:  store,
		client: client,
		cache:  cacheCfg,
		sync:   syncCfg,
		log:    logger.WithModule("sync"),
		now:    time.Now,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *SyncService) cacheEnabled() bool {
	return s.cache.Enabled && s.store != nil
}

// IsSyncNeeded reports whether the named job is due. A job is due when it has
// never completed successfully or when the configured interval has elapsed
// since the last completed run. Ledger read failures resolve to due rather
// than stalling syncs forever.
func (s *SyncService) IsSyncNeeded(ctx context.Context, syncType string) bool {
	if !s.cacheEnabled() {
		return false
	}
	ctx = ensureContext(ctx)

	var record models.SyncStatus
	err := s.db.WithContext(ctx).
		Take(&record, "sync_type = ? AND status = ?", syncType, models.SyncStatusCompleted).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	if err != nil {
		s.log.Warn("sync status read failed", zap.String("sync_type", syncType), zap.Error(err))
		return true
	}

	return s.now().Sub(record.LastSyncAt) >= s.cache.SyncInterval()
}

// SyncPopularMovies refreshes the cached discover-movie pages.
func (s *SyncService) SyncPopularMovies(ctx context.Context) error {
	return s.runPagedJob(ctx, models.SyncPopularMovies, endpointDiscoverMovies, discoverMovieParams, models.CategoryDiscoverMovies, s.cache.PopularTTL())
}

// SyncPopularTVShows refreshes the cached discover-tv pages.
func (s *SyncService) SyncPopularTVShows(ctx context.Context) error {
	return s.runPagedJob(ctx, models.SyncPopularTVShows, endpointDiscoverTV, discoverTVParams, models.CategoryDiscoverTV, s.cache.PopularTTL())
}

// SyncTrending refreshes the trending listings for every media type and time
// window combination.
func (s *SyncService) SyncTrending(ctx context.Context) error {
	if !s.cacheEnabled() {
		return ErrCacheDisabled
	}
	ctx = ensureContext(ctx)

	runID := uuid.NewString()
	log := s.log.With(zap.String("sync_type", models.SyncTrending), zap.String("run_id", runID))
	log.Info("sync started")

	s.updateStatus(ctx, models.SyncTrending, models.SyncStatusRunning, 0, nil)

	total := 0
	for _, mediaType := range []string{"movie", "tv"} {
		for _, timeWindow := range []string{"day", "week"} {
			endpoint := trendingEndpoint(mediaType, timeWindow)

			data, err := s.client.Request(ctx, endpoint, url.Values{})
			if err != nil {
				return s.failJob(ctx, models.SyncTrending, total, err, log)
			}

			s.writeThrough(ctx, endpoint, url.Values{}, models.CategoryTrending, data, s.cache.TrendingTTL(), log)
			total += resultCount(data)

			s.sleep(ctx, s.sync.RequestDelay)
		}
	}

	s.updateStatus(ctx, models.SyncTrending, models.SyncStatusCompleted, total, nil)
	metrics.SyncRuns.WithLabelValues(models.SyncTrending, "completed").Inc()
	log.Info("sync completed", zap.Int("records_processed", total))
	return nil
}

// runPagedJob drives one paginated sync job: mark running, fetch each page in
// order with a courtesy delay between calls, write every page through to the
// cache, then mark completed. Any page failure aborts the job immediately;
// progress already written stays in the cache.
func (s *SyncService) runPagedJob(ctx context.Context, syncType, endpoint string, buildParams func(int) url.Values, category models.CacheCategory, ttl time.Duration) error {
	if !s.cacheEnabled() {
		return ErrCacheDisabled
	}
	ctx = ensureContext(ctx)

	runID := uuid.NewString()
	log := s.log.With(zap.String("sync_type", syncType), zap.String("run_id", runID))
	log.Info("sync started", zap.Int("max_pages", s.sync.MaxPages))

	s.updateStatus(ctx, syncType, models.SyncStatusRunning, 0, nil)

	total := 0
	for page := 1; page <= s.sync.MaxPages; page++ {
		params := buildParams(page)

		data, err := s.client.Request(ctx, endpoint, params)
		if err != nil {
			return s.failJob(ctx, syncType, total, err, log)
		}

		s.writeThrough(ctx, endpoint, params, category, data, ttl, log)
		total += resultCount(data)

		s.sleep(ctx, s.sync.RequestDelay)
	}

	s.updateStatus(ctx, syncType, models.SyncStatusCompleted, total, nil)
	metrics.SyncRuns.WithLabelValues(syncType, "completed").Inc()
	log.Info("sync completed", zap.Int("records_processed", total))
	return nil
}

func (s *SyncService) failJob(ctx context.Context, syncType string, processed int, err error, log *zap.Logger) error {
	msg := err.Error()
	s.updateStatus(ctx, syncType, models.SyncStatusFailed, processed, &msg)
	metrics.SyncRuns.WithLabelValues(syncType, "failed").Inc()
	log.Error("sync failed", zap.Int("records_processed", processed), zap.Error(err))
	return fmt.Errorf("sync %s: %w", syncType, err)
}

// writeThrough stores a fetched page under the same key the catalog service
// derives, so the next matching read is a hit. Write failures are logged and
// swallowed; the sync moves on with the data it has.
func (s *SyncService) writeThrough(ctx context.Context, endpoint string, params url.Values, category models.CacheCategory, data json.RawMessage, ttl time.Duration, log *zap.Logger) {
	key := cache.DeriveKey(endpoint, params)
	if err := s.store.Put(ctx, key, category, data, ttl); err != nil {
		log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// updateStatus upserts the single ledger row for a sync type. Ledger write
// failures are logged and swallowed so they cannot abort a running job.
func (s *SyncService) updateStatus(ctx context.Context, syncType, status string, records int, errMsg *string) {
	record := models.SyncStatus{
		SyncType:         syncType,
		LastSyncAt:       s.now(),
		Status:           status,
		RecordsProcessed: records,
		ErrorMessage:     errMsg,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sync_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_sync_at", "status", "records_processed", "error_message", "updated_at"}),
		}).Create(&record).Error
	if err != nil {
		s.log.Warn("sync status update failed", zap.String("sync_type", syncType), zap.Error(err))
	}
}

// JobOutcome encodes the three-way result of one job within a full sync.
type JobOutcome int

const (
	// JobFailed marks a job that ran and aborted on an upstream error.
	JobFailed JobOutcome = iota
	// JobSucceeded marks a job that completed all pages.
	JobSucceeded
	// JobSkipped marks a job that was not due according to the scheduler gate.
	JobSkipped
)

// MarshalJSON renders the outcome in the report's wire form: true, false, or
// the literal skip marker.
func (o JobOutcome) MarshalJSON() ([]byte, error) {
	switch o {
	case JobSucceeded:
		return []byte("true"), nil
	case JobSkipped:
		return json.Marshal("skipped - not needed")
	default:
		return []byte("false"), nil
	}
}

// String implements fmt.Stringer for operator-facing output.
func (o JobOutcome) String() string {
	switch o {
	case JobSucceeded:
		return "success"
	case JobSkipped:
		return "skipped - not needed"
	default:
		return "failed"
	}
}

// FullSyncReport summarises one full sync pass.
type FullSyncReport struct {
	ExpiredCleaned int64      `json:"expired_cleaned"`
	PopularMovies  JobOutcome `json:"popular_movies"`
	PopularTVShows JobOutcome `json:"popular_tv_shows"`
	Trending       JobOutcome `json:"trending"`
}

// RunFullSync sweeps expired cache rows, then runs each job in fixed order
// (movies, TV, trending) when the scheduler gate says it is due. A failing
// job never aborts its siblings; each outcome is reported separately.
func (s *SyncService) RunFullSync(ctx context.Context) FullSyncReport {
	ctx = ensureContext(ctx)

	report := FullSyncReport{}

	if s.cacheEnabled() {
		swept, err := s.store.SweepExpired(ctx)
		if err != nil {
			s.log.Warn("expired cache sweep failed", zap.Error(err))
		} else {
			report.ExpiredCleaned = swept
			metrics.SweptEntries.Add(float64(swept))
		}
	}

	report.PopularMovies = s.runGated(ctx, models.SyncPopularMovies, s.SyncPopularMovies)
	report.PopularTVShows = s.runGated(ctx, models.SyncPopularTVShows, s.SyncPopularTVShows)
	report.Trending = s.runGated(ctx, models.SyncTrending, s.SyncTrending)

	return report
}

func (s *SyncService) runGated(ctx context.Context, syncType string, job func(context.Context) error) JobOutcome {
	if !s.IsSyncNeeded(ctx, syncType) {
		return JobSkipped
	}
	if err := job(ctx); err != nil {
		return JobFailed
	}
	return JobSucceeded
}

// SyncStats combines the ledger rows with per-category cache aggregates.
type SyncStats struct {
	SyncStatus []models.SyncStatus   `json:"sync_status"`
	CacheStats []cache.CategoryStats `json:"cache_stats"`
}

// Stats returns the current ledger and cache aggregates for observability.
func (s *SyncService) Stats(ctx context.Context) (*SyncStats, error) {
	ctx = ensureContext(ctx)

	var ledger []models.SyncStatus
	if err := s.db.WithContext(ctx).
		Order("last_sync_at DESC").
		Find(&ledger).Error; err != nil {
		return nil, fmt.Errorf("sync stats: ledger: %w", err)
	}

	stats := &SyncStats{SyncStatus: ledger}

	if s.store != nil {
		cacheStats, err := s.store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("sync stats: cache: %w", err)
		}
		stats.CacheStats = cacheStats
	}

	return stats, nil
}

// resultCount counts the items in a list response's results array.
func resultCount(data json.RawMessage) int {
	var payload struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0
	}
	return len(payload.Results)
}

// sleepContext pauses between upstream calls without outliving the caller.
func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
