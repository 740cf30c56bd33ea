package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/memehub/memehub/internal/cache"
	"github.com/memehub/memehub/internal/logger"
	"github.com/memehub/memehub/internal/metrics"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a distributed fixed-window rate limiter
// backed by Redis, so limits hold across multiple server instances. When
// Redis is not configured it falls back to the in-process limiter.
func RedisRateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	fallback := NewRateLimiter(config)

	return func(c *gin.Context) {
		redisClient := cache.Get()
		if redisClient == nil {
			fallback(c)
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), c.ClientIP())
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := redisClient.Incr(ctx, key)
		if err != nil {
			// A broken limiter should not take the API down with it
			logger.Log.Warn("Redis rate limit check failed, allowing request",
				zap.Error(err),
			)
			c.Next()
			return
		}

		if count == 1 {
			if err := redisClient.Expire(ctx, key, config.Window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}

		if count > int64(config.Limit) {
			metrics.Get().RateLimitExceededTotal.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": config.Window.Seconds(),
			})
			return
		}

		c.Next()
	}
}
