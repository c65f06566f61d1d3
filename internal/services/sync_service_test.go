package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/database/testutil"
	"github.com/prashan-s/cinema-labs/internal/models"
)

type scriptedUpstream struct {
	mu      sync.Mutex
	handler func(endpoint string, params url.Values) (json.RawMessage, error)
	seen    []string
}

func (f *scriptedUpstream) Request(_ context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	f.seen = append(f.seen, endpoint+"?page="+params.Get("page"))
	f.mu.Unlock()
	return f.handler(endpoint, params)
}

func (f *scriptedUpstream) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func listResponse(items int) json.RawMessage {
	results := make([]map[string]int, items)
	for i := range results {
		results[i] = map[string]int{"id": i + 1}
	}
	payload, _ := json.Marshal(map[string]any{"results": results})
	return payload
}

func noSleep(context.Context, time.Duration) {}

func newSyncFixture(t *testing.T, db *gorm.DB, upstream UpstreamClient, opts ...SyncOption) *SyncService {
	t.Helper()

	store, err := cache.NewStore(db)
	require.NoError(t, err)

	opts = append([]SyncOption{WithSleep(noSleep)}, opts...)
	svc, err := NewSyncService(db, store, upstream, testCacheConfig(), app.SyncConfig{MaxPages: 5, RequestDelay: time.Millisecond}, opts...)
	require.NoError(t, err)
	return svc
}

func TestSyncPopularMoviesCompletes(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	upstream := &scriptedUpstream{}
	upstream.handler = func(endpoint string, params url.Values) (json.RawMessage, error) {
		// the ledger must say running before the first page is fetched
		var record models.SyncStatus
		require.NoError(t, db.Take(&record, "sync_type = ?", models.SyncPopularMovies).Error)
		require.Equal(t, models.SyncStatusRunning, record.Status)
		return listResponse(2), nil
	}

	svc := newSyncFixture(t, db, upstream)

	ctx := context.Background()
	require.NoError(t, svc.SyncPopularMovies(ctx))

	var record models.SyncStatus
	require.NoError(t, db.Take(&record, "sync_type = ?", models.SyncPopularMovies).Error)
	require.Equal(t, models.SyncStatusCompleted, record.Status)
	require.Equal(t, 10, record.RecordsProcessed) // 5 pages x 2 items
	require.Nil(t, record.ErrorMessage)

	// every synced page is a guaranteed hit for the matching catalog request
	store, err := cache.NewStore(db)
	require.NoError(t, err)
	for page := 1; page <= 5; page++ {
		key := cache.DeriveKey(endpointDiscoverMovies, discoverMovieParams(page))
		_, ok, err := store.Get(ctx, key, models.CategoryDiscoverMovies)
		require.NoError(t, err)
		require.True(t, ok, "page %d should be cached", page)
	}
}

func TestSyncJobPartialFailureAccounting(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	counts := map[string]int{"1": 2, "2": 3}
	upstream := &scriptedUpstream{}
	upstream.handler = func(endpoint string, params url.Values) (json.RawMessage, error) {
		page := params.Get("page")
		if page == "3" {
			return nil, errors.New("upstream exploded")
		}
		return listResponse(counts[page]), nil
	}

	svc := newSyncFixture(t, db, upstream)

	err := svc.SyncPopularMovies(context.Background())
	require.Error(t, err)

	var record models.SyncStatus
	require.NoError(t, db.Take(&record, "sync_type = ?", models.SyncPopularMovies).Error)
	require.Equal(t, models.SyncStatusFailed, record.Status)
	require.Equal(t, 5, record.RecordsProcessed) // pages 1-2 only
	require.NotNil(t, record.ErrorMessage)
	require.Contains(t, *record.ErrorMessage, "upstream exploded")

	// pages after the failure were never requested
	require.Len(t, upstream.requests(), 3)

	// progress made before the failure is kept, not rolled back
	var cached int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&cached).Error)
	require.Equal(t, int64(2), cached)
}

func TestSyncTrendingCoversEveryVariant(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	upstream := &scriptedUpstream{}
	upstream.handler = func(endpoint string, params url.Values) (json.RawMessage, error) {
		return listResponse(1), nil
	}

	svc := newSyncFixture(t, db, upstream)
	require.NoError(t, svc.SyncTrending(context.Background()))

	require.Equal(t, []string{
		"/trending/movie/day?page=",
		"/trending/movie/week?page=",
		"/trending/tv/day?page=",
		"/trending/tv/week?page=",
	}, upstream.requests())

	var record models.SyncStatus
	require.NoError(t, db.Take(&record, "sync_type = ?", models.SyncTrending).Error)
	require.Equal(t, models.SyncStatusCompleted, record.Status)
	require.Equal(t, 4, record.RecordsProcessed)

	var cached int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Where("category = ?", models.CategoryTrending).Count(&cached).Error)
	require.Equal(t, int64(4), cached)
}

func TestSyncPausesBetweenUpstreamCalls(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	upstream := &scriptedUpstream{}
	upstream.handler = func(endpoint string, params url.Values) (json.RawMessage, error) {
		return listResponse(1), nil
	}

	var pauses []time.Duration
	svc := newSyncFixture(t, db, upstream, WithSleep(func(_ context.Context, d time.Duration) {
		pauses = append(pauses, d)
	}))

	require.NoError(t, svc.SyncPopularMovies(context.Background()))
	require.Len(t, pauses, 5)
	for _, pause := range pauses {
		require.Equal(t, time.Millisecond, pause)
	}
}

func TestSyncRequiresEnabledCache(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	store, err := cache.NewStore(db)
	require.NoError(t, err)

	cfg := testCacheConfig()
	cfg.Enabled = false

	upstream := &scriptedUpstream{handler: func(string, url.Values) (json.RawMessage, error) {
		return listResponse(1), nil
	}}

	svc, err := NewSyncService(db, store, upstream, cfg, app.SyncConfig{MaxPages: 2}, WithSleep(noSleep))
	require.NoError(t, err)

	require.ErrorIs(t, svc.SyncPopularMovies(context.Background()), ErrCacheDisabled)
	require.ErrorIs(t, svc.SyncTrending(context.Background()), ErrCacheDisabled)
	require.Empty(t, upstream.requests())

	var count int64
	require.NoError(t, db.Model(&models.SyncStatus{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestIsSyncNeededGating(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	now := time.Now()
	upstream := &scriptedUpstream{handler: func(string, url.Values) (json.RawMessage, error) {
		return listResponse(1), nil
	}}
	svc := newSyncFixture(t, db, upstream, WithSyncNow(func() time.Time { return now }))

	ctx := context.Background()

	// no ledger row at all: due
	require.True(t, svc.IsSyncNeeded(ctx, models.SyncPopularMovies))

	// completed within the interval: not due
	require.NoError(t, db.Create(&models.SyncStatus{
		SyncType:   models.SyncPopularMovies,
		LastSyncAt: now.Add(-23 * time.Hour),
		Status:     models.SyncStatusCompleted,
	}).Error)
	require.False(t, svc.IsSyncNeeded(ctx, models.SyncPopularMovies))

	// interval elapsed: due again
	require.NoError(t, db.Model(&models.SyncStatus{}).
		Where("sync_type = ?", models.SyncPopularMovies).
		Update("last_sync_at", now.Add(-25*time.Hour)).Error)
	require.True(t, svc.IsSyncNeeded(ctx, models.SyncPopularMovies))

	// a failed run never satisfies the gate
	require.NoError(t, db.Create(&models.SyncStatus{
		SyncType:   models.SyncTrending,
		LastSyncAt: now,
		Status:     models.SyncStatusFailed,
	}).Error)
	require.True(t, svc.IsSyncNeeded(ctx, models.SyncTrending))
}

func TestIsSyncNeededFailsOpenOnLedgerErrors(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	upstream := &scriptedUpstream{handler: func(string, url.Values) (json.RawMessage, error) {
		return listResponse(1), nil
	}}
	svc := newSyncFixture(t, db, upstream)

	// a dead connection makes the ledger read fail; treat the job as due
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	require.True(t, svc.IsSyncNeeded(context.Background(), models.SyncPopularMovies))
}

func TestIsSyncNeededDisabledCache(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	store, err := cache.NewStore(db)
	require.NoError(t, err)

	cfg := testCacheConfig()
	cfg.Enabled = false

	upstream := &scriptedUpstream{handler: func(string, url.Values) (json.RawMessage, error) {
		return listResponse(1), nil
	}}
	svc, err := NewSyncService(db, store, upstream, cfg, app.SyncConfig{}, WithSleep(noSleep))
	require.NoError(t, err)

	require.False(t, svc.IsSyncNeeded(context.Background(), models.SyncPopularMovies))
}

func TestRunFullSyncReport(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	now := time.Now()
	upstream := &scriptedUpstream{}
	upstream.handler = func(endpoint string, params url.Values) (json.RawMessage, error) {
		if endpoint == endpointDiscoverTV {
			return nil, errors.New("tv endpoint down")
		}
		return listResponse(1), nil
	}

	svc := newSyncFixture(t, db, upstream, WithSyncNow(func() time.Time { return now }))

	ctx := context.Background()

	// one already-expired row for the sweep to remove
	store, err := cache.NewStore(db, cache.WithNow(func() time.Time { return now.Add(-2 * time.Hour) }))
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "stale", models.CategoryGeneral, []byte(`{}`), time.Hour))

	// trending completed recently, so its job is gated off
	require.NoError(t, db.Create(&models.SyncStatus{
		SyncType:   models.SyncTrending,
		LastSyncAt: now.Add(-time.Hour),
		Status:     models.SyncStatusCompleted,
	}).Error)

	report := svc.RunFullSync(ctx)

	require.Equal(t, int64(1), report.ExpiredCleaned)
	require.Equal(t, JobSucceeded, report.PopularMovies)
	require.Equal(t, JobFailed, report.PopularTVShows)
	require.Equal(t, JobSkipped, report.Trending)

	// jobs run in fixed order and a failing job does not abort its siblings
	requests := upstream.requests()
	require.Equal(t, fmt.Sprintf("%s?page=1", endpointDiscoverMovies), requests[0])
	require.Equal(t, fmt.Sprintf("%s?page=1", endpointDiscoverTV), requests[len(requests)-1])

	encoded, err := json.Marshal(report)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"expired_cleaned": 1,
		"popular_movies": true,
		"popular_tv_shows": false,
		"trending": "skipped - not needed"
	}`, string(encoded))
}

func TestStatsCombinesLedgerAndCache(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	upstream := &scriptedUpstream{handler: func(string, url.Values) (json.RawMessage, error) {
		return listResponse(2), nil
	}}
	svc := newSyncFixture(t, db, upstream)

	ctx := context.Background()
	require.NoError(t, svc.SyncTrending(ctx))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats.SyncStatus, 1)
	require.Equal(t, models.SyncTrending, stats.SyncStatus[0].SyncType)
	require.Equal(t, 8, stats.SyncStatus[0].RecordsProcessed)

	require.Len(t, stats.CacheStats, 1)
	require.Equal(t, models.CategoryTrending, stats.CacheStats[0].Category)
	require.Equal(t, int64(4), stats.CacheStats[0].TotalEntries)
}

func TestNewSyncServiceValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	store, err := cache.NewStore(db)
	require.NoError(t, err)

	_, err = NewSyncService(nil, store, &scriptedUpstream{}, app.CacheConfig{}, app.SyncConfig{})
	require.Error(t, err)

	_, err = NewSyncService(db, store, nil, app.CacheConfig{}, app.SyncConfig{})
	require.Error(t, err)
}
