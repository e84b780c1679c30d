package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-auth-api/internal/service"
)

// unmatchedPath labels requests that hit no registered route, keeping
// probes for random URLs out of the path label.
const unmatchedPath = "unmatched"

// Metrics returns middleware that captures request metrics using the provided service.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
