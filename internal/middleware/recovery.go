package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/prashan-s/cinema-labs/pkg/errors"
	"github.com/prashan-s/cinema-labs/pkg/logger"
	"github.com/prashan-s/cinema-labs/pkg/response"
)

// Recovery converts panics into the standard 500 error envelope. The panic
// value is logged server-side only; clients see nothing but the sentinel.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithModule("http").Error("panic",
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", r),
				)
				c.Abort()
				response.Error(c, appErrors.ErrInternalServer)
			}
		}()
		c.Next()
	}
}

// NotFoundHandler answers unknown routes with the standard 404 error envelope.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, appErrors.ErrNotFound)
}
