// README: Request logging middleware.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if uid := CallerUID(c); uid != "" {
			attrs = append(attrs, "uid", uid, "role", CallerRole(c))
		}
		if c.Writer.Status() >= 500 {
			log.ErrorContext(c.Request.Context(), "request", attrs...)
			return
		}
		log.InfoContext(c.Request.Context(), "request", attrs...)
	}
}
