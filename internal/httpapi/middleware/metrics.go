package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/golovatskygroup/cloudera-ml-mcp/internal/metrics"
)

// Metrics records request count, latency and in-flight requests. Unmatched
// routes are labeled "unmatched" to keep label cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		m.HTTPInFlight.Inc()
		defer m.HTTPInFlight.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
