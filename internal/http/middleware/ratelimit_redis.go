package middleware

import (
	"context"
	"strconv"
	"time"

	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// SetRedisClient shares the application's Redis client with the limiters.
// With a nil client RedisRateLimit and UserRateLimit fall back to in-process limiting.
func SetRedisClient(rdb *redis.Client) {
	redisClient = rdb
}

// RedisRateLimit implements a simple fixed-window rate limiter using Redis INCR/EXPIRE.
// key format: rl:<window_seconds>:<identifier>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	local := LocalRateLimit(maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}
		key := "rl:" + formatSeconds(window) + ":" + c.ClientIP()
		fixedWindow(c, key, c.FullPath(), maxRequests, window)
	}
}

// UserRateLimit limits one logged-in user's mutations, independent of IP.
// Requires LoadSession to run before this.
func UserRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := newLocalLimiter(maxRequests, window)
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		if sess == nil {
			c.Next()
			return
		}
		if redisClient == nil {
			if !local.allow(sess.ID) {
				RLBlocked.WithLabelValues(scope).Inc()
				tooMany(c, window)
				return
			}
			RLRequests.WithLabelValues(scope).Inc()
			c.Next()
			return
		}
		key := "user_rl:" + scope + ":" + sess.ID + ":" + formatSeconds(window)
		fixedWindow(c, key, scope, maxRequests, window)
	}
}

func fixedWindow(c *gin.Context, key, label string, maxRequests int, window time.Duration) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		// on Redis error, fail-open (allow) but set header
		logger.Warn("rate limiter redis error", "error", err)
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}

	if val == 1 {
		// first increment, set expiry
		redisClient.Expire(ctx, key, window)
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(label).Inc()
		tooMany(c, window)
		return
	}

	RLRequests.WithLabelValues(label).Inc()
	c.Next()
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64(d.Seconds()), 10)
}
