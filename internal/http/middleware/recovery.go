// README: Recovery middleware; turns panics into a logged 500.
package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.ErrorContext(c.Request.Context(), "panic recovered",
					"panic", rec, "path", c.Request.URL.Path, "stack", string(debug.Stack()))
				abort(c, http.StatusInternalServerError, "internal_error", "internal error")
			}
		}()
		c.Next()
	}
}
