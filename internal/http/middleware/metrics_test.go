package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/observability"
)

func TestMetricsSeparatesStreamsFromLatency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()

	r := gin.New()
	r.Use(Metrics(m))
	var inflightDuringStream float64
	r.GET("/api/events", func(c *gin.Context) {
		inflightDuringStream = m.APIInflight()
		c.Status(http.StatusOK)
	})
	r.POST("/api/lessons/:id/toggle", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, target := range []struct{ method, path string }{
		{http.MethodGet, "/api/events"},
		{http.MethodPost, "/api/lessons/l1/toggle"},
		{http.MethodGet, "/nope"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(target.method, target.path, nil))
	}

	if inflightDuringStream != 0 {
		t.Fatalf("inflight during stream: want=0 got=%v", inflightDuringStream)
	}
	if got := m.APIRequestCount(http.MethodGet, "/api/events", "200"); got != 1 {
		t.Fatalf("stream count: want=1 got=%v", got)
	}
	if got := m.APILatencyCount(http.MethodGet, "/api/events"); got != 0 {
		t.Fatalf("stream latency samples: want=0 got=%d", got)
	}
	if got := m.APILatencyCount(http.MethodPost, "/api/lessons/:id/toggle"); got != 1 {
		t.Fatalf("toggle latency samples: want=1 got=%d", got)
	}
	if got := m.APIRequestCount(http.MethodGet, "unmatched", "404"); got != 1 {
		t.Fatalf("unmatched count: want=1 got=%v", got)
	}
	if got := m.APIInflight(); got != 0 {
		t.Fatalf("inflight after: want=0 got=%v", got)
	}
}
