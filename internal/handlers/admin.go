package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/models"
	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/pkg/errors"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/response"
)

// AdminHandler exposes cache and sync management operations.
type AdminHandler struct {
	sync  *services.SyncService
	store *cache.Store
	log   *zap.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(sync *services.SyncService, store *cache.Store) (*AdminHandler, error) {
	if sync == nil {
		return nil, errors.New("ADMIN_HANDLER_INIT", "sync service is required", http.StatusInternalServerError)
	}
	return &AdminHandler{sync: sync, store: store, log: logger.WithModule("admin")}, nil
}

// GET /api/admin/cache/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.sync.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("stats query failed", zap.Error(err))
		response.Error(c, errors.Wrap(err, "failed to load cache statistics"))
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// POST /api/admin/cache/sweep
func (h *AdminHandler) Sweep(c *gin.Context) {
	if h.store == nil {
		response.Error(c, errors.ErrCacheDisabled)
		return
	}

	swept, err := h.store.SweepExpired(c.Request.Context())
	if err != nil {
		h.log.Error("cache sweep failed", zap.Error(err))
		response.Error(c, errors.Wrap(err, "failed to sweep expired entries"))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"expired_cleaned": swept})
}

// POST /api/admin/sync
func (h *AdminHandler) FullSync(c *gin.Context) {
	report := h.sync.RunFullSync(c.Request.Context())
	response.Success(c, http.StatusOK, report)
}

// POST /api/admin/sync/:job
func (h *AdminHandler) RunJob(c *gin.Context) {
	job := c.Param("job")

	var run func() error
	ctx := c.Request.Context()
	switch job {
	case models.SyncPopularMovies:
		run = func() error { return h.sync.SyncPopularMovies(ctx) }
	case models.SyncPopularTVShows:
		run = func() error { return h.sync.SyncPopularTVShows(ctx) }
	case models.SyncTrending:
		run = func() error { return h.sync.SyncTrending(ctx) }
	default:
		response.Error(c, errors.NewBadRequest("unknown sync job: "+job))
		return
	}

	if err := run(); err != nil {
		if stderrors.Is(err, services.ErrCacheDisabled) {
			response.Error(c, errors.ErrCacheDisabled)
			return
		}
		h.log.Error("sync job failed", zap.String("job", job), zap.Error(err))
		response.Error(c, errors.ErrUpstream)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"job": job, "status": "completed"})
}
