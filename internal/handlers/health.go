package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prashan-s/cinema-labs/pkg/response"
)

// Health answers readiness probes. It deliberately skips the database and
// the upstream API; catalog reads fail open, so neither makes the service
// unhealthy.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{
			"status":  "ok",
			"service": "cinema-labs",
		})
	}
}
