package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobboard/auth-service/internal/tokens"
)

// Context keys populated by Identity.
const (
	ClaimsKey   = "claims"
	UsernameKey = "username"
)

// Identity returns a Gin middleware that verifies an optional Bearer token
// and, on success, stores the claims and username in the request context.
// It never rejects: a missing, malformed, or expired token simply leaves the
// request anonymous. Route handlers decide whether identity is required.
func Identity(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := tokens.Verify(secret, raw)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// RequireIdentity aborts with 401 unless an earlier Identity middleware
// established a username for the request.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Username(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Username returns the authenticated username for the request, or "" when
// the request is anonymous.
func Username(c *gin.Context) string {
	v, ok := c.Get(UsernameKey)
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}

func bearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
