// README: Bearer-token auth middleware; resolves the caller into an account.Principal.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sahayog/internal/infra"
	"sahayog/internal/modules/account"
	"sahayog/internal/types"
)

const principalKey = "principal"

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: msg})
}

// Auth verifies the bearer token and stores the caller in the gin context.
// The "role" claim selects the role (absent means customer) and a true
// "admin" claim grants approval authority.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		identity, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || identity == nil || identity.UID == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}

		roleClaim, _ := identity.Claims["role"].(string)
		role, err := account.ParseRole(roleClaim)
		if err != nil {
			abort(c, http.StatusForbidden, "unknown_role", "token carries an unknown role")
			return
		}
		admin, _ := identity.Claims["admin"].(bool)

		c.Set(principalKey, account.Principal{ID: types.ID(identity.UID), Role: role, Admin: admin})
		c.Next()
	}
}

// RequireAdmin rejects callers without approval authority.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Caller(c).Admin {
			abort(c, http.StatusForbidden, "forbidden", "admin only")
			return
		}
		c.Next()
	}
}

// Caller returns the authenticated principal, or the zero value outside Auth.
func Caller(c *gin.Context) account.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return account.Principal{}
	}
	p, _ := v.(account.Principal)
	return p
}

func CallerUID(c *gin.Context) string {
	return string(Caller(c).ID)
}

func CallerRole(c *gin.Context) string {
	return string(Caller(c).Role)
}
