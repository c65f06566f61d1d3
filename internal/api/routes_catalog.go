package api

import (
	"github.com/gin-gonic/gin"

	"github.com/prashan-s/cinema-labs/internal/handlers"
	"github.com/prashan-s/cinema-labs/internal/services"
)

func registerCatalogRoutes(api *gin.RouterGroup, svc *services.CatalogService) error {
	handler, err := handlers.NewCatalogHandler(svc)
	if err != nil {
		return err
	}

	movies := api.Group("/movies")
	{
		movies.GET("/popular", handler.PopularMovies)
		movies.GET("/:id", handler.MovieDetails)
	}

	tv := api.Group("/tv")
	{
		tv.GET("/popular", handler.PopularTVShows)
		tv.GET("/:id", handler.TVShowDetails)
	}

	search := api.Group("/search")
	{
		search.GET("/movies", handler.SearchMovies)
		search.GET("/tv", handler.SearchTVShows)
	}

	api.GET("/trending/:mediaType/:timeWindow", handler.Trending)

	return nil
}
