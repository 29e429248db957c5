package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/pkg/logger"
	"github.com/gogotex/postflow/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

const redisLimiterPrefix = "postflow:rl:"

// RedisRateLimitMiddleware limits requests per key across all replicas using
// fixed windows in Redis. A window admits rps*window requests plus burst.
// Without a client it falls back to the in-process limiter. When Redis cannot
// be reached requests are let through rather than blocking post edits.
func RedisRateLimitMiddleware(client *redis.Client, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		return RateLimitMiddleware(rps, burst)
	}
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	limit := int64(rps*float64(secs)) + int64(burst)
	ttl := time.Duration(secs+1) * time.Second

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := redisLimiterPrefix + limiterKey(c) + ":" + strconv.FormatInt(time.Now().Unix()/secs, 10)

		var count *redis.IntCmd
		_, err := client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			count = p.Incr(ctx, key)
			p.Expire(ctx, key, ttl)
			return nil
		})
		if err != nil {
			logger.Warnf("rate limit %s: %v", key, err)
			c.Next()
			return
		}

		n := count.Val()
		remaining := limit - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if n > limit {
			c.Header("Retry-After", strconv.FormatInt(secs, 10))
			metrics.RateLimitRejected.WithLabelValues("redis").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
