package mw

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"parkspot-backend/internal/metrics"
)

// Metrics counts every request by route template and response status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route, strconv.Itoa(c.Writer.Status()))
	}
}
