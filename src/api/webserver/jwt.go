package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/auth"
)

const (
	ctxAddr   = "addr"
	ctxClaims = "claims"
)

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[7:]), true
}

// JWTMiddleware rejects requests without a valid, unexpired bearer token.
func JWTMiddleware(tokens *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing bearer token"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
			return
		}
		c.Set(ctxAddr, claims.Address)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// OptionalJWT records the caller's address when a valid token is present and
// lets the request through either way.
func OptionalJWT(tokens *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.Parse(raw); err == nil {
				c.Set(ctxAddr, claims.Address)
				c.Set(ctxClaims, claims)
			}
		}
		c.Next()
	}
}
