package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordApply("applied")
		c.RecordHistoryFailure()
		c.SetPending("user-1", 3)
		c.RecordCacheLookup(true)
	})
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector("rental")

	c.RecordApply("applied")
	c.RecordApply("applied")
	c.RecordApply("not_found")
	c.RecordHistoryFailure()
	c.SetPending("user-1", 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.IncreasesApplied.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.IncreasesApplied.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HistoryWriteFailure))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.PendingIncreases.WithLabelValues("user-1")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := NewCollector("rental")

	r := gin.New()
	r.Use(c.Middleware())
	r.GET("/health", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(c.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rental_http_requests_total")
}
