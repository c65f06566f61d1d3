package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CacheCategory classifies a cached TMDB endpoint family and selects its TTL policy.
type CacheCategory string

const (
	CategoryDiscoverMovies CacheCategory = "discover_movies"
	CategoryDiscoverTV     CacheCategory = "discover_tv"
	CategorySearchMovies   CacheCategory = "search_movies"
	CategorySearchTV       CacheCategory = "search_tv"
	CategoryMovieDetails   CacheCategory = "movie_details"
	CategoryTVDetails      CacheCategory = "tv_details"
	CategoryTrending       CacheCategory = "trending"
	CategoryGeneral        CacheCategory = "general"
)

// CacheEntry stores a verbatim TMDB response body keyed by request identity.
// Exactly one row exists per (key, category) pair; writes are upserts.
type CacheEntry struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	Key       string         `gorm:"size:64;uniqueIndex:idx_cache_key_category" json:"key"`
	Category  CacheCategory  `gorm:"size:32;uniqueIndex:idx_cache_key_category" json:"category"`
	Payload   datatypes.JSON `json:"payload"`
	ExpiresAt time.Time      `gorm:"index" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (e *CacheEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Active reports whether the entry is still fresh at the supplied instant.
// A row whose expiry equals the instant is already expired.
func (e CacheEntry) Active(now time.Time) bool {
	return e.ExpiresAt.After(now)
}
