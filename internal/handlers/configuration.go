package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prashan-s/cinema-labs/internal/app"
	"github.com/prashan-s/cinema-labs/pkg/response"
)

// Configuration tells clients where to resolve poster and backdrop paths.
// List and detail payloads carry relative image paths only.
func Configuration(cfg *app.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"images": gin.H{
				"secure_base_url": cfg.TMDB.ImageBaseURL,
			},
		})
	}
}
