package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/escolaware/escola-api/internal/service"
)

// Metrics records method, route, status and latency for every request.
// The scrape endpoint itself is skipped so it does not pollute the series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		// Prefer the route template over the raw path to keep label
		// cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
