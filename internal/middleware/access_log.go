package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jpgoodman17/SPN-Site-Search/internal/observability"
)

// AccessLog logs every completed request and counts it by route and status.
// Must run after RequestContext.
func AccessLog(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if metrics != nil {
			metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		}

		log := GetLogger(c)
		if log == nil {
			return
		}

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			log.Error("Request completed with server error", nil, fields)
		case status >= 400:
			log.Warn("Request completed with client error", fields)
		default:
			log.Info("Request completed", fields)
		}
	}
}
