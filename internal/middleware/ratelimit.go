package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"authflow/internal/metrics"
	"authflow/internal/ratelimit"
)

// RateLimit applies a fixed-window limit per client IP to one route.
func RateLimit(l ratelimit.Limiter, route string, limit int, window time.Duration, m *metrics.Metrics) gin.HandlerFunc {
	return RateLimitBy(l, route, limit, window, m, func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	})
}

// RateLimitBy applies a fixed-window limit to one route, counting hits under
// the key returned by keyFn. Requests for which keyFn returns "" pass through
// uncounted.
func RateLimitBy(l ratelimit.Limiter, route string, limit int, window time.Duration, m *metrics.Metrics, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || limit <= 0 {
			c.Next()
			return
		}
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}
		d := l.Allow(key+":"+route, limit, window)

		remaining := limit - d.Count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !d.Allowed {
			m.RateLimited(route)
			c.Header("Retry-After", strconv.Itoa(d.RetryAfter(time.Now())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later"})
			return
		}
		c.Next()
	}
}

// SignupKey keys a limit on the pending signup named by the signup token, so
// guesses against one account are counted together whatever their source.
// Requests without a valid signup token get "" and are left to the handler.
func SignupKey(v SignupVerifier) func(*gin.Context) string {
	return func(c *gin.Context) string {
		id, err := v.VerifySignupToken(TokenFrom(c, SignupCookie))
		if err != nil || id == "" {
			return ""
		}
		return "signup:" + id
	}
}
