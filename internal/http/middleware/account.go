// README: Records every authenticated caller in the account directory.
package middleware

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"sahayog/internal/modules/account"
)

type AccountTracker interface {
	Track(ctx context.Context, p account.Principal) error
}

// TrackAccount upserts the caller's role. Failures are logged and never fail the request.
func TrackAccount(tracker AccountTracker, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := Caller(c)
		if err := tracker.Track(c.Request.Context(), p); err != nil {
			log.WarnContext(c.Request.Context(), "track account failed", "uid", p.ID, "error", err)
		}
		c.Next()
	}
}
