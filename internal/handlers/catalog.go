package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/pkg/errors"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/response"
)

// discover filters that browsers may pass straight through to the upstream API.
var allowedDiscoverFilters = []string{
	"sort_by",
	"with_genres",
	"primary_release_year",
	"first_air_date_year",
	"vote_average.gte",
}

// CatalogHandler serves movie and TV listings backed by the response cache.
type CatalogHandler struct {
	svc *services.CatalogService
	log *zap.Logger
}

// NewCatalogHandler constructs a catalog handler.
func NewCatalogHandler(svc *services.CatalogService) (*CatalogHandler, error) {
	if svc == nil {
		return nil, errors.New("CATALOG_HANDLER_INIT", "catalog service is required", http.StatusInternalServerError)
	}
	return &CatalogHandler{svc: svc, log: logger.WithModule("catalog")}, nil
}

// GET /api/movies/popular
func (h *CatalogHandler) PopularMovies(c *gin.Context) {
	data, err := h.svc.DiscoverMovies(c.Request.Context(), pageParam(c), discoverFilters(c))
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

// GET /api/tv/popular
func (h *CatalogHandler) PopularTVShows(c *gin.Context) {
	data, err := h.svc.DiscoverTVShows(c.Request.Context(), pageParam(c), discoverFilters(c))
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

// GET /api/search/movies
func (h *CatalogHandler) SearchMovies(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.Error(c, errors.NewBadRequest("query parameter is required"))
		return
	}

	data, err := h.svc.SearchMovies(c.Request.Context(), query, pageParam(c))
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

// GET /api/search/tv
func (h *CatalogHandler) SearchTVShows(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.Error(c, errors.NewBadRequest("query parameter is required"))
		return
	}

	data, err := h.svc.SearchTVShows(c.Request.Context(), query, pageParam(c))
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

// GET /api/movies/:id
func (h *CatalogHandler) MovieDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.Error(c, errors.NewBadRequest("movie id must be a positive integer"))
		return
	}

	data, err := h.svc.MovieDetails(c.Request.Context(), id)
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

// GET /api/tv/:id
func (h *CatalogHandler) TVShowDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		response.Error(c, errors.NewBadRequest("tv id must be a positive integer"))
		return
	}

	data, err := h.svc.TVShowDetails(c.Request.Context(), id)
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

// GET /api/trending/:mediaType/:timeWindow
func (h *CatalogHandler) Trending(c *gin.Context) {
	mediaType := c.Param("mediaType")
	if mediaType != "movie" && mediaType != "tv" {
		response.Error(c, errors.NewBadRequest("media type must be movie or tv"))
		return
	}

	timeWindow := c.Param("timeWindow")
	if timeWindow != "day" && timeWindow != "week" {
		response.Error(c, errors.NewBadRequest("time window must be day or week"))
		return
	}

	data, err := h.svc.Trending(c.Request.Context(), mediaType, timeWindow)
	if err != nil {
		h.upstreamError(c, err)
		return
	}
	response.RawJSON(c, http.StatusOK, data)
}

func (h *CatalogHandler) upstreamError(c *gin.Context, err error) {
	h.log.Error("upstream request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	response.Error(c, errors.ErrUpstream)
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func discoverFilters(c *gin.Context) url.Values {
	extra := url.Values{}
	for _, name := range allowedDiscoverFilters {
		if v := c.Query(name); v != "" {
			extra.Set(name, v)
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
