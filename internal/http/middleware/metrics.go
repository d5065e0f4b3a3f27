package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursemarket-backend/internal/observability"
)

// Routes whose duration is connection lifetime rather than work done.
var streamingRoutes = map[string]bool{
	"/api/events": true,
	"/metrics":    true,
}

// Metrics records per-route counts and latency for the progress API. Open
// SSE streams are counted once and stay out of the in-flight gauge.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if streamingRoutes[route] {
			c.Next()
			m.CountAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
			return
		}

		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
