package monitoring

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

func TestNewMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordAdmitted("general")
	a.RecordAdmitted("navigation")
	a.RecordAdmitted("general")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.NotificationsAdmitted.WithLabelValues("general")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.NotificationsAdmitted.WithLabelValues("general")))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("GET", "/health", "200", 10*time.Millisecond)
	m.RecordHTTPRequest("POST", "/notifications", "400", 30*time.Millisecond)
	m.RecordSkipped("host")
	m.RecordAdmitted("general")
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.TotalRequests)
	assert.Equal(t, int64(1), s.TotalErrors)
	assert.Equal(t, int64(1), s.Admitted)
	assert.Equal(t, int64(1), s.Skipped)
	assert.Equal(t, int64(1), s.ActiveConnections)
	assert.InDelta(t, 20.0, s.AvgDurationMS, 0.001)
}

func TestRecordRouteLookup(t *testing.T) {
	m := NewMetrics()
	m.RecordRouteLookup("synthetic", "success", 0)
	m.RecordRouteLookup("service", "error", 2*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteLookups.WithLabelValues("synthetic", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RouteLookups.WithLabelValues("service", "error")))
}

func TestAddExpiredIgnoresZero(t *testing.T) {
	m := NewMetrics()
	m.AddExpired(0)
	m.AddExpired(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsExpired))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m))
	r.POST("/launcher/:command", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/launcher/up", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/launcher/:command", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "glassd_http_requests_total"))
	assert.True(t, strings.Contains(w.Body.String(), "glassd_uptime_seconds"))
}
