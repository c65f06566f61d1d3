package api

import (
	"github.com/gin-gonic/gin"

	"github.com/prashan-s/cinema-labs/internal/cache"
	"github.com/prashan-s/cinema-labs/internal/handlers"
	"github.com/prashan-s/cinema-labs/internal/services"
	"github.com/prashan-s/cinema-labs/internal/tmdb"
)

func registerAdminRoutes(api *gin.RouterGroup, sync *services.SyncService, store *cache.Store, client *tmdb.Client) error {
	handler, err := handlers.NewAdminHandler(sync, store)
	if err != nil {
		return err
	}

	admin := api.Group("/admin")
	{
		admin.GET("/cache/stats", handler.Stats)
		admin.POST("/cache/sweep", handler.Sweep)
		admin.POST("/sync", handler.FullSync)
		admin.POST("/sync/:job", handler.RunJob)
	}

	if client != nil {
		tokenHandler, err := handlers.NewTokenHandler(client)
		if err != nil {
			return err
		}
		admin.GET("/token/validate", tokenHandler.Validate)
		admin.PUT("/token", tokenHandler.Update)
	}

	return nil
}
