package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sync job identifiers tracked in the sync status ledger.
const (
	SyncPopularMovies  = "popular_movies"
	SyncPopularTVShows = "popular_tv_shows"
	SyncTrending       = "trending"
)

// Sync run states.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncStatus records the latest outcome of a named bulk sync job. At most one
// row exists per sync type; each run overwrites the previous one.
type SyncStatus struct {
	ID               string    `gorm:"primaryKey;type:uuid" json:"id"`
	SyncType         string    `gorm:"size:64;uniqueIndex" json:"sync_type"`
	LastSyncAt       time.Time `json:"last_sync_at"`
	Status           string    `gorm:"size:16" json:"status"`
	RecordsProcessed int       `json:"records_processed"`
	ErrorMessage     *string   `json:"error_message,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName keeps the singular name the ledger has always used.
func (SyncStatus) TableName() string { return "sync_status" }

func (s *SyncStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
