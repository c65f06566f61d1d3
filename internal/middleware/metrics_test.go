package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/prashan-s/cinema-labs/pkg/metrics"
)

func TestMetricsCollapsesUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/movies/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	serve := func(path string) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	serve("/api/movies/550")
	serve("/api/movies/603")
	serve("/definitely/not/a/route")
	serve("/another/random/path")

	// two parameterised hits share one route series, two 404s share "unmatched"
	require.Equal(t, 2, testutil.CollectAndCount(metrics.APILatency))

	unmatched, err := metrics.APILatency.GetMetricWithLabelValues(http.MethodGet, "unmatched", "404")
	require.NoError(t, err)

	var sample dto.Metric
	require.NoError(t, unmatched.(prometheus.Metric).Write(&sample))
	require.Equal(t, uint64(2), sample.GetHistogram().GetSampleCount())
}
