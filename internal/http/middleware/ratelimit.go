// README: Fixed-window rate limiter backed by a Redis INCR+EXPIRE transaction.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateCounter counts hits on key inside the current window.
type RateCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RedisRateCounter struct {
	rdb *redis.Client
}

func NewRedisRateCounter(rdb *redis.Client) *RedisRateCounter {
	return &RedisRateCounter{rdb: rdb}
}

// Hit increments and expires key in one MULTI/EXEC so a counter never outlives its window.
func (r *RedisRateCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimit allows limit requests per window for each caller, keyed by uid
// when authenticated and by client IP otherwise. Counter errors let the request through.
func RateLimit(counter RateCounter, limit int, window time.Duration, log *slog.Logger) gin.HandlerFunc {
	if window <= 0 {
		window = time.Minute
	}
	return func(c *gin.Context) {
		subject := CallerUID(c)
		if subject == "" {
			subject = c.ClientIP()
		}
		bucket := time.Now().UnixNano() / int64(window)
		key := "ratelimit:" + subject + ":" + strconv.FormatInt(bucket, 10)

		n, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limit counter failed", "error", err)
			c.Next()
			return
		}

		remaining := int64(limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if n > int64(limit) {
			abort(c, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, please try again later")
			return
		}
		c.Next()
	}
}
