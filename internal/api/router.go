package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/handlers"
	"github.com/prashan-s/cinema-labs/internal/middleware"
	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/internal/tmdb"
)

// Deps bundles the constructed services the router mounts handlers on.
type Deps struct {
	Catalog *services.CatalogService
	Sync    *services.SyncService
	Store   *cache.Store
	Client  *tmdb.Client
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(cfg *app.Config, deps Deps) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog service must be provided")
	}
	if deps.Sync == nil {
		return nil, fmt.Errorf("sync service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	api := r.Group("/api")

	api.GET("/configuration", handlers.Configuration(cfg))

	if err := registerCatalogRoutes(api, deps.Catalog); err != nil {
		return nil, err
	}
	if err := registerAdminRoutes(api, deps.Sync, deps.Store, deps.Client); err != nil {
		return nil, err
	}
	registerMonitoringRoutes(r, cfg)

	return r, nil
}
