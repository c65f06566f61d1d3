package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/models"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/metrics"
)

const defaultTTL = 24 * time.Hour

// CatalogService serves TMDB catalog data through the response cache. Reads
// consult the cache first; misses fall through to the upstream client and the
// successful response is written back with a category-specific TTL.
type CatalogService struct {
	store  *cache.Store
	client UpstreamClient
	cfg    app.CacheConfig
	log    *zap.Logger
}

// UpstreamClient is the transport consumed by the catalog and sync services.
type UpstreamClient interface {
	Request(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// NewCatalogService constructs a CatalogService. A nil store disables caching;
// requests then always reach the upstream API.
func NewCatalogService(store *cache.Store, client UpstreamClient, cfg app.CacheConfig) (*CatalogService, error) {
	if client == nil {
		return nil, errors.New("catalog service: upstream client is required")
	}

	return &CatalogService{
		store:  store,
		client: client,
		cfg:    cfg,
		log:    logger.WithModule("catalog"),
	}, nil
}

// CacheEnabled reports whether responses are read from and written to the cache.
func (s *CatalogService) CacheEnabled() bool {
	return s.cfg.Enabled && s.store != nil
}

// CachedRequest fetches an endpoint through the cache. A hit is returned
// without touching the upstream API and without extending its own expiry.
// Upstream errors are returned as-is and never cached; cache read failures
// degrade to an upstream call and cache write failures are logged only, since
// the caller already holds valid data at that point.
func (s *CatalogService) CachedRequest(ctx context.Context, endpoint string, params url.Values, category models.CacheCategory, ttlOverride *time.Duration) (json.RawMessage, error) {
	ctx = ensureContext(ctx)
	key := cache.DeriveKey(endpoint, params)

	if s.CacheEnabled() {
		payload, ok, err := s.store.Get(ctx, key, category)
		if err != nil {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			metrics.CacheLookups.WithLabelValues(string(category), "hit").Inc()
			return json.RawMessage(payload), nil
		}
		metrics.CacheLookups.WithLabelValues(string(category), "miss").Inc()
	}

	data, err := s.client.Request(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	if s.CacheEnabled() {
		ttl := s.ttlFor(category)
		if ttlOverride != nil {
			ttl = *ttlOverride
		}
		if err := s.store.Put(ctx, key, category, data, ttl); err != nil {
			s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return data, nil
}

// ttlFor selects the configured cache lifetime for a category. Unmapped
// categories fall back to 24 hours.
func (s *CatalogService) ttlFor(category models.CacheCategory) time.Duration {
	switch category {
	case models.CategoryDiscoverMovies, models.CategoryDiscoverTV:
		return s.cfg.PopularTTL()
	case models.CategorySearchMovies, models.CategorySearchTV:
		return s.cfg.SearchTTL()
	case models.CategoryMovieDetails, models.CategoryTVDetails:
		return s.cfg.DetailsTTL()
	case models.CategoryTrending:
		return s.cfg.TrendingTTL()
	default:
		return defaultTTL
	}
}

// DiscoverMovies returns a page of popular movies. Extra parameters override
// the defaults.
func (s *CatalogService) DiscoverMovies(ctx context.Context, page int, extra url.Values) (json.RawMessage, error) {
	params := mergeParams(discoverMovieParams(page), extra)
	return s.CachedRequest(ctx, endpointDiscoverMovies, params, models.CategoryDiscoverMovies, nil)
}

// DiscoverTVShows returns a page of popular TV shows.
func (s *CatalogService) DiscoverTVShows(ctx context.Context, page int, extra url.Values) (json.RawMessage, error) {
	params := mergeParams(discoverTVParams(page), extra)
	return s.CachedRequest(ctx, endpointDiscoverTV, params, models.CategoryDiscoverTV, nil)
}

// SearchMovies searches movie titles.
func (s *CatalogService) SearchMovies(ctx context.Context, query string, page int) (json.RawMessage, error) {
	return s.CachedRequest(ctx, endpointSearchMovies, searchParams(query, page), models.CategorySearchMovies, nil)
}

// SearchTVShows searches TV show titles.
func (s *CatalogService) SearchTVShows(ctx context.Context, query string, page int) (json.RawMessage, error) {
	return s.CachedRequest(ctx, endpointSearchTV, searchParams(query, page), models.CategorySearchTV, nil)
}

// MovieDetails returns details for one movie.
func (s *CatalogService) MovieDetails(ctx context.Context, movieID int) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("/movie/%d", movieID)
	return s.CachedRequest(ctx, endpoint, detailsParams(), models.CategoryMovieDetails, nil)
}

// TVShowDetails returns details for one TV show.
func (s *CatalogService) TVShowDetails(ctx context.Context, tvID int) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("/tv/%d", tvID)
	return s.CachedRequest(ctx, endpoint, detailsParams(), models.CategoryTVDetails, nil)
}

// Trending returns trending titles for a media type (movie|tv) and time
// window (day|week).
func (s *CatalogService) Trending(ctx context.Context, mediaType, timeWindow string) (json.RawMessage, error) {
	return s.CachedRequest(ctx, trendingEndpoint(mediaType, timeWindow), url.Values{}, models.CategoryTrending, nil)
}

func mergeParams(base, extra url.Values) url.Values {
	for key, values := range extra {
		base[key] = values
	}
	return base
}
