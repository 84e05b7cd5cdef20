package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clivefinesse/jobtracker/pkg/metrics"
)

// Metrics records request latency keyed by method, route template and status.
// The ops endpoints are excluded so scrapes do not dominate the histogram.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		switch path {
		case "/metrics", "/health":
			return
		case "":
			path = "unmatched"
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
