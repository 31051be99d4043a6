package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/auth"
	"urs-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	principalKey = "principal"
)

var publicPrefixes = []string{
	"/api/v1/auth/google/",
	"/api/v1/health",
	"/metrics",
}

// Auth validates Bearer JWTs and stores the principal in context.
func Auth(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range publicPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		claims, err := signer.Verify(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		p := claims.Principal()
		c.Set(userIDKey, p.UserID)
		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the principal holds role.
func RequireRole(role access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if PrincipalFromContext(c).Role != role {
			respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role", nil)
			return
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// PrincipalFromContext returns the authenticated principal, or the zero value.
func PrincipalFromContext(c *gin.Context) access.Principal {
	if c == nil {
		return access.Principal{}
	}
	val, _ := c.Get(principalKey)
	if p, ok := val.(access.Principal); ok {
		return p
	}
	return access.Principal{}
}
