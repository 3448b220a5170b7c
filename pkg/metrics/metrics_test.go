package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePricing(t *testing.T) {
	m := New("pricing")

	m.ObservePricing("CALL", "EUROPEAN", time.Millisecond, "")
	m.ObservePricing("CALL", "EUROPEAN", time.Millisecond, "")
	m.ObservePricing("straddle", "EUROPEAN", time.Millisecond, "INVALID_OPTION_KIND")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PricingTotal.WithLabelValues("CALL", "EUROPEAN", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PricingTotal.WithLabelValues("other", "EUROPEAN", "INVALID_OPTION_KIND")))

	m.ObserveBatch(10, 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BatchFailures))

	m.ObserveOutbox("sent")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxMessages.WithLabelValues("sent")))
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("pricing")

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/results/:symbol/latest", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/results/AAPL/latest", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/results/:symbol/latest", "200")))

	w = httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "lattice_http_requests_total"))
}
