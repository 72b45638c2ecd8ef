package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"authflow/internal/logging"
	"authflow/internal/metrics"
)

// RequestLogger logs one line per request and records request metrics.
// Query strings are left out of the log since they may carry tokens.
func RequestLogger(log logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		took := time.Since(start)
		m.ObserveRequest(c.Request.Method, route, status, took)

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"took", took.Truncate(time.Microsecond),
			"client_ip", c.ClientIP(),
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.Error(ctx, "http request", args...)
		case status >= 400:
			log.Warn(ctx, "http request", args...)
		default:
			log.Info(ctx, "http request", args...)
		}
	}
}
