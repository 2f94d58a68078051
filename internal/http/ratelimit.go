package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig controls the manual trigger rate limit.
type RateLimitConfig struct {
	Enabled bool
	PerSec  float64
	Burst   int
}

// RateLimitMiddleware bounds how often manual sync triggers are accepted.
// The façade serves a single local UI, so one shared limiter is enough; a
// button held down must not turn into a drain stampede.
func RateLimitMiddleware(config RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !config.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limiter := rate.NewLimiter(rate.Limit(config.PerSec), config.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			if logger != nil {
				logger.Warn("sync trigger rate limited",
					slog.String("client_ip", c.ClientIP()),
				)
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "too many sync triggers, slow down",
			})
			return
		}

		c.Next()
	}
}
