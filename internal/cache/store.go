package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/prashan-s/cinema-labs/internal/models"
)

// Store persists TMDB responses in the primary SQL database.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customises the Store.
type Option func(*Store)

// WithNow overrides the clock used for expiry comparisons, primarily for testing.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore constructs a database-backed Store.
func NewStore(db *gorm.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("cache store: db is required")
	}

	store := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Get returns the payload for (key, category) if a row exists and has not
// expired. Expired rows are treated as absent but are left in place; removal
// is the sweep's job, never the reader's.
func (s *Store) Get(ctx context.Context, key string, category models.CacheCategory) (datatypes.JSON, bool, error) {
	var entry models.CacheEntry
	err := s.db.WithContext(ctx).
		Take(&entry, "key = ? AND category = ?", key, category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if !entry.Active(s.now()) {
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

// Put upserts the payload for (key, category) with a fresh expiry. The created
// timestamp is written once on first insert; every overwrite refreshes the
// payload, expiry and updated timestamp.
func (s *Store) Put(ctx context.Context, key string, category models.CacheCategory, payload []byte, ttl time.Duration) error {
	entry := models.CacheEntry{
		Key:       key,
		Category:  category,
		Payload:   datatypes.JSON(payload),
		ExpiresAt: s.now().Add(ttl),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}, {Name: "category"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
		}).Create(&entry).Error
}

// SweepExpired deletes every row whose expiry has passed and returns the
// number of rows removed. Calling it again without new expirations returns 0.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now()).
		Delete(&models.CacheEntry{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CategoryStats aggregates cache rows for one category.
type CategoryStats struct {
	Category       models.CacheCategory `json:"category"`
	TotalEntries   int64                `json:"total_entries"`
	ActiveEntries  int64                `json:"active_entries"`
	ExpiredEntries int64                `json:"expired_entries"`
	OldestEntry    time.Time            `json:"oldest_entry"`
	NewestEntry    time.Time            `json:"newest_entry"`
}

// Stats returns per-category row counts and timestamp bounds. Read-only;
// callers must tolerate failure without blocking the read/write path.
func (s *Store) Stats(ctx context.Context) ([]CategoryStats, error) {
	now := s.now()

	var stats []CategoryStats
	err := s.db.WithContext(ctx).
		Model(&models.CacheEntry{}).
		Select(`category,
			COUNT(*) AS total_entries,
			SUM(CASE WHEN expires_at > ? THEN 1 ELSE 0 END) AS active_entries,
			SUM(CASE WHEN expires_at <= ? THEN 1 ELSE 0 END) AS expired_entries,
			MIN(created_at) AS oldest_entry,
			MAX(updated_at) AS newest_entry`, now, now).
		Group("category").
		Order("category").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
