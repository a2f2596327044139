package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware verifies the bearer token on /api/ routes and stores the caller in the request context.
// Infra endpoints stay open.
func Middleware(verifier JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if !strings.HasPrefix(p, "/api/") {
			c.Next()
			return
		}
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing bearer token",
				"meta":    gin.H{"kind": "unauthorized"},
			})
			return
		}
		id, err := verifier.Verify(tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid token",
				"meta":    gin.H{"kind": "unauthorized"},
			})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// FromGin returns the caller stored by Middleware.
func FromGin(c *gin.Context) (Identity, bool) {
	if c == nil || c.Request == nil {
		return Identity{}, false
	}
	return FromContext(c.Request.Context())
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
