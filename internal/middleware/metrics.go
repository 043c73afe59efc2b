package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/internal/service"
)

// UnmatchedRoute labels requests that hit no registered route, so scanners
// and typos cannot grow the label set.
const UnmatchedRoute = "unmatched"

// Metrics records per-route request metrics. Paths are the route templates,
// which keeps signed blob tokens and entity ids out of the labels.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = UnmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
