package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prashan-s/cinema-labs/pkg/logger"
)

func TestLoggerRecordsRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	core, recorded := observer.New(zapcore.InfoLevel)
	t.Cleanup(logger.Replace(zap.New(core)))

	r := gin.New()
	r.Use(Logger())
	r.GET("/api/search/movies", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search/movies?query=fight+club&page=2", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	entries := recorded.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	require.Equal(t, "http", fields["module"])
	require.Equal(t, http.MethodGet, fields["method"])
	require.Equal(t, "/api/search/movies", fields["path"])
	require.Equal(t, "query=fight+club&page=2", fields["query"])
	require.EqualValues(t, http.StatusOK, fields["status"])
	require.EqualValues(t, len("pong"), fields["bytes"])
}
